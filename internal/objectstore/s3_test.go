package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL_WithBaseURL(t *testing.T) {
	store := &S3Store{publicBaseURL: "https://cdn.example.com"}

	assert.Equal(t, "https://cdn.example.com/images/upload_1.png", store.PublicURL("images/upload_1.png"))
}

func TestPublicURL_DefaultsToVirtualHostedStyle(t *testing.T) {
	store := &S3Store{bucket: "uploads", region: "eu-central-1"}

	assert.Equal(t,
		"https://uploads.s3.eu-central-1.amazonaws.com/images/upload_1.png",
		store.PublicURL("images/upload_1.png"))
}
