package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"uk.co.dudmesh.profiles/internal/blob"
	"uk.co.dudmesh.profiles/internal/model"
	"uk.co.dudmesh.profiles/internal/passcode"
	"uk.co.dudmesh.profiles/internal/store"
	"uk.co.dudmesh.profiles/internal/validate"
)

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type testConfig struct {
	dir string
}

func (c testConfig) DataDir() string {
	return c.dir
}

type failingBlobs struct{}

func (failingBlobs) UploadString(ctx context.Context, key, data string) (*blob.Object, error) {
	return nil, errors.New("bucket unavailable")
}

func (failingBlobs) Delete(ctx context.Context, key string) error {
	return blob.ErrorObjectNotFound
}

// racingStore reports no existing profile, then loses the insert race.
type racingStore struct{}

func (racingStore) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return nil, model.ErrorProfileNotFound
}

func (racingStore) Add(ctx context.Context, profile *model.Profile) (model.ProfileID, error) {
	return "", model.ErrorEmailExists
}

type fixture struct {
	service  *service
	profiles Store
	blobDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	profiles, err := store.NewProfileStore(testConfig{t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { profiles.Close() })

	blobDir := t.TempDir()
	blobs, err := blob.NewLocalStore(blobDir, "http://localhost:8080")
	require.NoError(t, err)

	validator := validate.New(validate.WithClock(func() time.Time { return fixedNow }))
	s := New(profiles, blobs, passcode.NewHasher(bcrypt.MinCost), validator)
	s.now = func() time.Time { return fixedNow }

	return &fixture{service: s, profiles: profiles, blobDir: blobDir}
}

func validParams() *model.CreateProfileParams {
	return &model.CreateProfileParams{
		FirstName:      "Joanna",
		LastName:       "Doe",
		DOB:            "1990-05-20",
		Location:       "London",
		ProfilePicture: tinyPNG,
		Interests:      model.Interests{"climbing", "chess"},
		Sex:            "Female",
		Email:          "jo@example.com",
		Passcode:       "123456",
	}
}

func TestCreate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.service.Create(ctx, validParams())
		require.NoError(t, err)
		assert.NotEmpty(id)

		profile, err := f.profiles.FindByEmail(ctx, "jo@example.com")
		require.NoError(t, err)
		assert.Equal(id, profile.ID)
		assert.Equal(model.SexFemale, profile.Sex)
		assert.Equal("http://localhost:8080/media/profiles/1718452800000_jo_example_com.png", profile.ProfilePicture)
		assert.NotEqual("123456", profile.Passcode)
		assert.Nil(bcrypt.CompareHashAndPassword([]byte(profile.Passcode), []byte("123456")))

		_, err = os.Stat(filepath.Join(f.blobDir, "profiles", "1718452800000_jo_example_com.png"))
		assert.Nil(err)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, validParams())
		require.NoError(t, err)

		_, err = f.service.Create(ctx, validParams())
		e := model.AsError(err)
		assert.Equal(model.KindConflict, e.Kind)
		assert.Equal("Email already exists", e.Message)
	})

	t.Run("Duplicate insert race", func(t *testing.T) {
		f := newFixture(t)
		f.service.profiles = racingStore{}
		_, err := f.service.Create(ctx, validParams())
		assert.Equal(model.KindConflict, model.KindOf(err))

		// the picture uploaded for the losing insert is removed again
		_, err = os.Stat(filepath.Join(f.blobDir, "profiles", "1718452800000_jo_example_com.png"))
		assert.True(errors.Is(err, os.ErrNotExist))
	})

	t.Run("Under age", func(t *testing.T) {
		f := newFixture(t)
		params := validParams()
		params.FirstName = "Jo"
		params.DOB = "2010-01-01"
		_, err := f.service.Create(ctx, params)
		e := model.AsError(err)
		assert.Equal(model.KindValidation, e.Kind)
		assert.Contains(e.Errors, "User must be 18 or older")
		assert.Contains(e.Message, "User must be 18 or older")
	})

	t.Run("Validation runs before lookup", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(ctx, validParams())
		require.NoError(t, err)

		params := validParams()
		params.Interests = model.Interests{}
		_, err = f.service.Create(ctx, params)
		assert.Equal(model.KindValidation, model.KindOf(err))
	})

	t.Run("Upload failure is internal", func(t *testing.T) {
		f := newFixture(t)
		f.service.blobs = failingBlobs{}
		_, err := f.service.Create(ctx, validParams())
		e := model.AsError(err)
		assert.Equal(model.KindInternal, e.Kind)
		assert.Equal("Internal server error", e.Message)
		assert.ErrorContains(e.Err, "bucket unavailable")

		_, err = f.profiles.FindByEmail(ctx, "jo@example.com")
		assert.ErrorIs(err, model.ErrorProfileNotFound)
	})
}

func TestPictureKey(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("profiles/1718452800000_jo_example_com.png", PictureKey(fixedNow, "jo@example.com", "image/png"))
	assert.Equal("profiles/1718452800000_a_b_c_d_e.jpg", PictureKey(fixedNow, "a+b@c.d-e", "image/jpeg"))
	assert.True(strings.HasSuffix(PictureKey(fixedNow, "x@y.z", "image/gif"), ".jpg"))
}
