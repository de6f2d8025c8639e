package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"uk.co.dudmesh.profiles/internal/blob"
	"uk.co.dudmesh.profiles/internal/model"
	"uk.co.dudmesh.profiles/internal/validate"
	"uk.co.dudmesh.profiles/pkg/dataurl"
)

const PicturePrefix = "profiles"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Store interface {
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	Add(ctx context.Context, profile *model.Profile) (model.ProfileID, error)
}

type BlobStore interface {
	UploadString(ctx context.Context, key, data string) (*blob.Object, error)
	Delete(ctx context.Context, key string) error
}

type Hasher interface {
	Hash(passcode string) (string, error)
}

type service struct {
	profiles  Store
	blobs     BlobStore
	hasher    Hasher
	validator *validate.Validator
	now       func() time.Time
}

func New(profiles Store, blobs BlobStore, hasher Hasher, validator *validate.Validator) *service {
	return &service{
		profiles:  profiles,
		blobs:     blobs,
		hasher:    hasher,
		validator: validator,
		now:       time.Now,
	}
}

// Create validates params, stores the picture and persists the profile,
// returning its id. Known failures come back as *model.Error as they are;
// anything else is reported as an internal error.
func (s *service) Create(ctx context.Context, params *model.CreateProfileParams) (model.ProfileID, error) {
	id, err := s.create(ctx, params)
	if err != nil {
		e := model.AsError(err)
		if e.Kind == model.KindInternal {
			log.Errorf("error creating profile: %v", e.Err)
		} else {
			log.Warnf("rejected profile: %s", e.Message)
		}
		return "", e
	}
	return id, nil
}

func (s *service) create(ctx context.Context, params *model.CreateProfileParams) (model.ProfileID, error) {
	if errs := s.validator.Profile(params); len(errs) > 0 {
		return "", model.NewValidationError(errs)
	}
	email := strings.TrimSpace(params.Email)
	log.Infof("creating profile for user: %s", email)

	_, err := s.profiles.FindByEmail(ctx, email)
	if err == nil {
		return "", model.NewConflictError(model.ErrorEmailExists)
	}
	if !errors.Is(err, model.ErrorProfileNotFound) {
		return "", fmt.Errorf("querying profiles by email: %w", err)
	}

	picture, err := s.uploadPicture(ctx, params.ProfilePicture, email)
	if err != nil {
		return "", err
	}
	stored := false
	defer func() {
		if !stored {
			s.removePicture(picture.Key)
		}
	}()

	id, err := model.CreateID()
	if err != nil {
		return "", fmt.Errorf("creating profile id: %w", err)
	}

	hash, err := s.hasher.Hash(strings.TrimSpace(string(params.Passcode)))
	if err != nil {
		return "", fmt.Errorf("hashing passcode: %w", err)
	}

	profile, err := model.NewProfile(id, params, picture.URL, hash, s.now())
	if err != nil {
		return "", fmt.Errorf("building profile: %w", err)
	}

	id, err = s.profiles.Add(ctx, profile)
	if err != nil {
		if errors.Is(err, model.ErrorEmailExists) {
			return "", model.NewConflictError(err)
		}
		return "", fmt.Errorf("adding profile: %w", err)
	}
	stored = true

	log.Infof("profile created successfully with ID: %s", id)
	return id, nil
}

func (s *service) uploadPicture(ctx context.Context, picture, email string) (*blob.Object, error) {
	mediaType, _, err := dataurl.Split(picture)
	if err != nil || !validate.IsImageType(mediaType) {
		return nil, model.NewValidationError([]string{"Invalid image format. Must be JPEG, JPG, PNG, or GIF"})
	}

	key := PictureKey(s.now(), email, mediaType)
	log.Infof("uploading image to path: %s", key)

	obj, err := s.blobs.UploadString(ctx, key, picture)
	if err != nil {
		return nil, fmt.Errorf("uploading profile picture: %w", err)
	}

	log.Infof("image uploaded to %s (%d bytes, xxh64 %s)", obj.Key, obj.Size, obj.Checksum)
	return obj, nil
}

// removePicture drops a picture whose profile was never stored. It runs on
// its own context so a cancelled request still cleans up.
func (s *service) removePicture(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Warnf("removing orphaned picture %s: %v", key, err)
	}
}

// PictureKey is profiles/<unix millis>_<email, non-alphanumerics as _><ext>.
func PictureKey(now time.Time, email, mediaType string) string {
	sanitized := unsafeKeyChars.ReplaceAllString(email, "_")
	return fmt.Sprintf("%s/%d_%s%s", PicturePrefix, now.UnixMilli(), sanitized, validate.ImageExtension(mediaType))
}
