// Package blob keeps uploaded files and hands out URLs they can be fetched
// from. The local implementation writes under a directory the HTTP server
// exposes at MediaPath.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"uk.co.dudmesh.profiles/pkg/dataurl"
)

const MediaPath = "/media"

var (
	ErrorObjectNotFound = errors.New("object not found")
	ErrorInvalidKey     = errors.New("invalid object key")
)

type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int
	Checksum    string
}

type localStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*localStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &localStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *localStore) Root() string {
	return s.root
}

// UploadString decodes a base64 data URL and stores the bytes under key.
func (s *localStore) UploadString(ctx context.Context, key, data string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename, err := s.filename(key)
	if err != nil {
		return nil, err
	}

	decoded, err := dataurl.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing data url: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(decoded.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing object: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return nil, fmt.Errorf("moving object into place: %w", err)
	}

	return &Object{
		Key:         key,
		URL:         s.urlFor(key),
		ContentType: decoded.MediaType,
		Size:        len(decoded.Data),
		Checksum:    strconv.FormatUint(xxhash.Sum64(decoded.Data), 16),
	}, nil
}

// URL returns the download URL of an existing object.
func (s *localStore) URL(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filename, err := s.filename(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrorObjectNotFound
		}
		return "", fmt.Errorf("checking object: %w", err)
	}
	return s.urlFor(key), nil
}

// Delete removes the object stored under key.
func (s *localStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filename, err := s.filename(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrorObjectNotFound
		}
		return fmt.Errorf("removing object: %w", err)
	}
	return nil
}

func (s *localStore) filename(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean[1:] != key {
		return "", ErrorInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *localStore) urlFor(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.baseURL + MediaPath + "/" + strings.Join(segments, "/")
}
