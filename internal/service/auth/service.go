package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"uk.co.dudmesh.profiles/internal/model"
	"uk.co.dudmesh.profiles/internal/validate"
)

var loginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "profiles",
	Name:      "login_total",
	Help:      "Login attempts by outcome.",
}, []string{"outcome"})

type ProfileStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
}

type AttemptStore interface {
	Get(ctx context.Context, email string) (*model.LoginAttempt, error)
	Fail(ctx context.Context, email string) (*model.LoginAttempt, error)
	Reset(ctx context.Context, email string) error
	MaxAttempts() int
}

type Hasher interface {
	Verify(hash, passcode string) (bool, error)
}

type service struct {
	profiles  ProfileStore
	attempts  AttemptStore
	hasher    Hasher
	validator *validate.Validator
}

func New(profiles ProfileStore, attempts AttemptStore, hasher Hasher, validator *validate.Validator) *service {
	return &service{
		profiles:  profiles,
		attempts:  attempts,
		hasher:    hasher,
		validator: validator,
	}
}

// Login checks params against the stored profile. Every failure is a
// *model.Error whose Kind tells the caller what went wrong.
func (s *service) Login(ctx context.Context, params *model.LoginParams) (*model.LoginResult, error) {
	result, err := s.login(ctx, params)
	if err != nil {
		e := model.AsError(err)
		loginTotal.WithLabelValues(e.Kind.String()).Inc()
		if e.Kind == model.KindInternal {
			log.Errorf("login error: %v", e.Err)
		}
		return nil, e
	}
	loginTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (s *service) login(ctx context.Context, params *model.LoginParams) (*model.LoginResult, error) {
	if errs := s.validator.Login(params); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	email := strings.TrimSpace(params.Email)
	passcode := strings.TrimSpace(string(params.Passcode))

	profile, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrorProfileNotFound) {
			log.Warnf("login attempt for non-existent user: %s", email)
			return nil, model.NewNotFoundError()
		}
		return nil, fmt.Errorf("finding profile: %w", err)
	}

	attempt, err := s.attempts.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("getting login attempts: %w", err)
	}
	if attempt.Locked(s.attempts.MaxAttempts()) {
		log.Warnf("login attempt for locked account: %s", email)
		return nil, model.NewLockedError()
	}

	ok, err := s.hasher.Verify(profile.Passcode, passcode)
	if err != nil {
		return nil, fmt.Errorf("verifying passcode: %w", err)
	}
	if !ok {
		attempt, err := s.attempts.Fail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("recording failed login: %w", err)
		}
		remaining := attempt.Remaining(s.attempts.MaxAttempts())
		log.Warnf("failed login attempt for %s, attempts remaining: %d", email, remaining)
		return nil, model.NewInvalidCredentialsError(remaining)
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		return nil, fmt.Errorf("resetting login attempts: %w", err)
	}
	log.Infof("successful login for user: %s", email)

	return &model.LoginResult{
		Success: true,
		Message: model.MessageLoginSuccessful,
		User:    profile.Summary(),
	}, nil
}
