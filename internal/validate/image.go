package validate

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"uk.co.dudmesh.profiles/pkg/dataurl"
)

// MaxImageBytes bounds the decoded size of a profile picture.
const MaxImageBytes = 5 * 1024 * 1024

var imagePattern = regexp.MustCompile(`^data:image/(jpeg|jpg|png|gif);base64,[A-Za-z0-9+/=]+$`)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".jpg",
}

// IsImageType reports whether mediaType is one of the accepted picture types.
func IsImageType(mediaType string) bool {
	_, ok := imageExtensions[strings.ToLower(mediaType)]
	return ok
}

// ImageExtension picks the stored file extension: .png for PNG, .jpg otherwise.
func ImageExtension(mediaType string) string {
	if ext, ok := imageExtensions[strings.ToLower(mediaType)]; ok {
		return ext
	}
	return ".jpg"
}

func (v *Validator) picture(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{"Profile picture is empty"}
	}
	if !imagePattern.MatchString(value) {
		return []string{"Profile picture must be a valid base64 image (JPEG, PNG, or GIF)"}
	}
	_, payload, err := dataurl.Split(value)
	if err != nil {
		return []string{"Profile picture must be a valid base64 image (JPEG, PNG, or GIF)"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return []string{"Profile picture must be a valid base64 image (JPEG, PNG, or GIF)"}
	}
	if len(data) > v.maxImageBytes {
		return []string{fmt.Sprintf("Profile picture must be less than %dMB", v.maxImageBytes/(1024*1024))}
	}
	return nil
}
