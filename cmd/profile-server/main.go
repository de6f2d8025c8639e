package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	"uk.co.dudmesh.profiles/internal/blob"
	"uk.co.dudmesh.profiles/internal/boot"
	"uk.co.dudmesh.profiles/internal/handlers"
	"uk.co.dudmesh.profiles/internal/passcode"
	"uk.co.dudmesh.profiles/internal/service/auth"
	"uk.co.dudmesh.profiles/internal/service/profile"
	"uk.co.dudmesh.profiles/internal/store"
	"uk.co.dudmesh.profiles/internal/store/mongo"
	"uk.co.dudmesh.profiles/internal/validate"
)

type ProfileStore interface {
	profile.Store
	Close() error
}

type config struct {
	boot.Config
	profileStore   ProfileStore
	attemptStore   interface{ Close() error }
	mediaRoot      string
	authService    handlers.AuthService
	profileService handlers.ProfileService
}

func openProfileStore(bootConfig *boot.Config) (ProfileStore, error) {
	switch bootConfig.Store.Driver {
	case boot.StoreDriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return mongo.NewProfileStore(ctx, bootConfig.Store.MongoURI, bootConfig.Store.MongoDatabase)
	default:
		return store.NewProfileStore(bootConfig)
	}
}

func newConfig(bootConfig *boot.Config) (*config, error) {
	profileStore, err := openProfileStore(bootConfig)
	if err != nil {
		return nil, fmt.Errorf("opening profile store: %w", err)
	}

	attemptStore, err := store.NewAttemptStore(bootConfig.Login.MaxAttempts)
	if err != nil {
		profileStore.Close()
		return nil, fmt.Errorf("creating attempt store: %w", err)
	}

	mediaRoot := path.Join(bootConfig.DataDir(), "media")
	blobStore, err := blob.NewLocalStore(mediaRoot, bootConfig.BaseURL)
	if err != nil {
		profileStore.Close()
		attemptStore.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	hasher := passcode.NewHasher(passcode.DefaultCost)
	validator := validate.New()

	return &config{
		Config:         *bootConfig,
		profileStore:   profileStore,
		attemptStore:   attemptStore,
		mediaRoot:      blobStore.Root(),
		authService:    auth.New(profileStore, attemptStore, hasher, validator),
		profileService: profile.New(profileStore, blobStore, hasher, validator),
	}, nil
}

func (c *config) Close() {
	if err := c.attemptStore.Close(); err != nil {
		log.Errorf("closing attempt store: %+v", err)
	}
	if err := c.profileStore.Close(); err != nil {
		log.Errorf("closing profile store: %+v", err)
	}
}

func main() {
	bootConfig, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	log.SetLevel(log.INFO)

	config, err := newConfig(bootConfig)
	if err != nil {
		log.Fatalf("creating services: %+v", err)
	}
	defer config.Close()

	server := echo.New()
	server.HideBanner = true
	server.HTTPErrorHandler = handlers.ErrorHandler(config.IsDevelopment())
	server.Use(middleware.BodyLimit(config.Server.BodyLimit))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("profiles"))
	server.Use(middleware.Recover())
	server.Use(middleware.Secure())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(config.Server.Origins, ","),
		AllowHeaders: headers,
	}))

	handlers.RegisterRoutes(server, &handlers.RouteConfig{
		AuthService:       config.authService,
		ProfileService:    config.profileService,
		LoginRateLimit:    config.Login.RateLimit,
		LoginRateWindow:   config.Login.RateWindow,
		ProfileRateLimit:  config.Profile.RateLimit,
		ProfileRateWindow: config.Profile.RateWindow,
		MediaRoot:         config.mediaRoot,
	})

	go func() {
		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.Server.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		log.Infof("health check available at: %s/api/health", config.BaseURL)
		if err := server.Start(":" + config.Server.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
