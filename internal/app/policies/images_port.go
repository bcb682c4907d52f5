package policies

import (
	"context"
	"io"
)

type UploadedImage struct {
	URL      string `json:"url"`
	Format   string `json:"format"`
	PublicID string `json:"publicId"`
}

// ImageHost stores vehicle photos for the back-office forms.
type ImageHost interface {
	Upload(ctx context.Context, name string, contentType string, body io.Reader) (UploadedImage, error)
}
