package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shyamtrading/siteserver/config"
)

func TestValidateUploadRejectsOversizedImage(t *testing.T) {
	// 6MB png must be rejected before any network call
	err := ValidateUpload("image/png", 6<<20, false)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "5MB")
}

func TestValidateUploadRejectsNonImage(t *testing.T) {
	err := ValidateUpload("application/pdf", 100, false)
	assert.ErrorIs(t, err, ErrInvalidFileType)
	assert.Contains(t, err.Error(), "application/pdf")
}

func TestValidateUploadVideoGate(t *testing.T) {
	assert.ErrorIs(t, ValidateUpload("video/mp4", 1<<20, false), ErrInvalidFileType)
	assert.NoError(t, ValidateUpload("video/mp4", 1<<20, true))
	assert.ErrorIs(t, ValidateUpload("video/mp4", 51<<20, true), ErrFileTooLarge)
}

func TestValidateUploadAcceptsImageAtLimit(t *testing.T) {
	assert.NoError(t, ValidateUpload("image/jpeg", MaxImageSize, false))
}

func TestObjectPathShape(t *testing.T) {
	p := ObjectPath("products", "steel rod.JPG")
	assert.Regexp(t, regexp.MustCompile(`^products/\d+-[0-9a-f]{8}\.jpg$`), p)

	p = ObjectPath("", "logo.png")
	assert.Regexp(t, regexp.MustCompile(`^uploads/\d+-[0-9a-f]{8}\.png$`), p)
}

func TestPublicBaseDerivation(t *testing.T) {
	base := publicBase(config.StorageConfig{
		Endpoint: "s3.example.com", Bucket: "site-media", UseSSL: true,
		AccessKey: "a", SecretKey: "b",
	})
	assert.Equal(t, "https://s3.example.com/site-media", base)

	base = publicBase(config.StorageConfig{
		Endpoint: "s3.example.com", Bucket: "site-media",
		PublicURL: "https://cdn.example.com/media/",
	})
	assert.Equal(t, "https://cdn.example.com/media", base)
}

func TestMediaTypeAndAlt(t *testing.T) {
	assert.Equal(t, "image", MediaType("image/webp"))
	assert.Equal(t, "video", MediaType("video/mp4"))
	assert.Equal(t, "steel rod front", AltFromFilename("steel-rod_front.jpg"))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(config.StorageConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
