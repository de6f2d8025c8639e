package dataurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataURL(t *testing.T) {
	assert := assert.New(t)

	t.Run("Encode and Parse", func(t *testing.T) {
		s := Encode("image/png", []byte("hello"))
		assert.Equal("data:image/png;base64,aGVsbG8=", s)

		d, err := Parse(s)
		assert.Nil(err)
		assert.Equal("image/png", d.MediaType)
		assert.Equal([]byte("hello"), d.Data)
		assert.Equal(s, d.String())
	})

	t.Run("Split", func(t *testing.T) {
		mediaType, payload, err := Split("data:image/gif;base64,R0lG")
		assert.Nil(err)
		assert.Equal("image/gif", mediaType)
		assert.Equal("R0lG", payload)
	})

	t.Run("Missing scheme", func(t *testing.T) {
		_, err := Parse("image/png;base64,aGVsbG8=")
		assert.ErrorIs(err, ErrorMissingScheme)
	})

	t.Run("Not base64", func(t *testing.T) {
		_, err := Parse("data:text/plain,hello")
		assert.ErrorIs(err, ErrorNotBase64)
	})

	t.Run("Bad payload", func(t *testing.T) {
		_, err := Parse("data:image/png;base64,!!!")
		assert.NotNil(err)
	})
}
