// Package dataurl reads and writes base64 "data:" URLs as used by browsers
// to inline file contents, e.g. data:image/png;base64,iVBORw0KGgo=
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	scheme       = "data:"
	base64Marker = ";base64,"
)

var (
	ErrorMissingScheme = errors.New("missing data: scheme")
	ErrorNotBase64     = errors.New("data url is not base64 encoded")
)

type DataURL struct {
	MediaType string
	Data      []byte
}

// Split returns the media type and the still encoded payload of s.
func Split(s string) (string, string, error) {
	if !strings.HasPrefix(s, scheme) {
		return "", "", ErrorMissingScheme
	}
	rest := s[len(scheme):]
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return "", "", ErrorNotBase64
	}
	return rest[:idx], rest[idx+len(base64Marker):], nil
}

func Parse(s string) (*DataURL, error) {
	mediaType, payload, err := Split(s)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return &DataURL{MediaType: mediaType, Data: data}, nil
}

func Encode(mediaType string, data []byte) string {
	sb := strings.Builder{}
	sb.Grow(len(scheme) + len(mediaType) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString(scheme)
	sb.WriteString(mediaType)
	sb.WriteString(base64Marker)
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

func (d *DataURL) String() string {
	return Encode(d.MediaType, d.Data)
}
