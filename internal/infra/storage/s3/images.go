package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"carrental/internal/app/policies"
)

var ErrNotConfigured = errors.New("s3: image host is not configured")

type Config struct {
	Endpoint      string
	UseSSL        bool
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// ImageHost keeps vehicle photos in an S3 compatible bucket readable by the public.
type ImageHost struct {
	bucket   string
	baseURL  string
	client   *minio.Client
	logger   *slog.Logger
	initOnce sync.Once
	initErr  error
}

func NewImageHost(cfg Config, logger *slog.Logger) (*ImageHost, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	client, err := minio.New(hostOnly(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	base := strings.TrimSpace(cfg.PublicBaseURL)
	if base == "" {
		base = endpoint
	}
	return &ImageHost{bucket: bucket, baseURL: strings.TrimRight(base, "/"), client: client, logger: logger}, nil
}

func (h *ImageHost) Upload(ctx context.Context, name string, contentType string, body io.Reader) (policies.UploadedImage, error) {
	if body == nil {
		return policies.UploadedImage{}, errors.New("s3: image body is required")
	}
	key := strings.Trim(strings.TrimSpace(name), "/")
	if key == "" {
		return policies.UploadedImage{}, errors.New("s3: object name is required")
	}
	if err := h.ensureBucket(ctx); err != nil {
		return policies.UploadedImage{}, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := h.client.PutObject(ctx, h.bucket, key, body, -1, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return policies.UploadedImage{}, fmt.Errorf("s3: put object: %w", err)
	}
	img := describe(h.baseURL, h.bucket, key, contentType)
	if h.logger != nil {
		h.logger.Info("image stored", "bucket", h.bucket, "key", key, "url", img.URL)
	}
	return img, nil
}

func (h *ImageHost) ensureBucket(ctx context.Context) error {
	h.initOnce.Do(func() {
		exists, err := h.client.BucketExists(ctx, h.bucket)
		if err != nil {
			h.initErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := h.client.MakeBucket(ctx, h.bucket, minio.MakeBucketOptions{}); err != nil {
			h.initErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, h.bucket)
		if err := h.client.SetBucketPolicy(ctx, h.bucket, policy); err != nil {
			h.initErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return h.initErr
}

// describe builds the url/format/publicId triple the back-office forms expect.
func describe(baseURL, bucket, key, contentType string) policies.UploadedImage {
	ext := path.Ext(key)
	format := strings.TrimPrefix(strings.ToLower(ext), ".")
	if format == "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if _, sub, ok := strings.Cut(mt, "/"); ok {
				format = sub
			}
		}
	}
	if format == "jpg" {
		format = "jpeg"
	}
	return policies.UploadedImage{
		URL:      fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), bucket, key),
		Format:   format,
		PublicID: strings.TrimSuffix(key, ext),
	}
}

func hostOnly(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

// NoopImageHost fails every upload; used when no bucket is configured.
type NoopImageHost struct{}

func (NoopImageHost) Upload(context.Context, string, string, io.Reader) (policies.UploadedImage, error) {
	return policies.UploadedImage{}, ErrNotConfigured
}

var (
	_ policies.ImageHost = (*ImageHost)(nil)
	_ policies.ImageHost = NoopImageHost{}
)
