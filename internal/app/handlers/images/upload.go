package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"carrental/internal/app/commands"
	"carrental/internal/app/policies"
	domainauth "carrental/internal/domain/auth"
)

const uploadImageKey = "images.upload"

var (
	ErrForbidden          = errors.New("images: admin role required")
	ErrBodyRequired       = errors.New("images: image body is required")
	ErrUnsupportedContent = errors.New("images: only image uploads are accepted")
	ErrHostUnavailable    = errors.New("images: image host unavailable")
)

// UploadCommand stores a vehicle photo for the back-office forms.
type UploadCommand struct {
	Session     domainauth.Session
	FileName    string
	ContentType string
	Body        io.Reader
}

func (c UploadCommand) Key() string                        { return uploadImageKey }
func (c UploadCommand) CurrentSession() domainauth.Session { return c.Session }

func (c UploadCommand) Validate() error {
	if c.Body == nil {
		return ErrBodyRequired
	}
	if !strings.HasPrefix(strings.ToLower(c.ContentType), "image/") {
		return ErrUnsupportedContent
	}
	return nil
}

type UploadHandler struct {
	Host   policies.ImageHost
	Prefix string
	NewID  func() string
	Logger *slog.Logger
}

func (h *UploadHandler) Handle(ctx context.Context, cmd UploadCommand) (*policies.UploadedImage, error) {
	if h.Host == nil {
		return nil, ErrHostUnavailable
	}
	if !cmd.Session.HasRole(domainauth.RoleAdmin) {
		return nil, ErrForbidden
	}
	name := h.objectName(cmd.FileName)
	img, err := h.Host.Upload(ctx, name, cmd.ContentType, cmd.Body)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if h.Logger != nil {
		h.Logger.Info("image uploaded", "public_id", img.PublicID, "uploader", cmd.Session.UserID)
	}
	return &img, nil
}

func (h *UploadHandler) objectName(fileName string) string {
	id := uuid.NewString()
	if h.NewID != nil {
		id = h.NewID()
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	prefix := strings.Trim(h.Prefix, "/")
	if prefix == "" {
		prefix = "vehicles"
	}
	return prefix + "/" + id + ext
}

var _ commands.Handler[UploadCommand, *policies.UploadedImage] = (*UploadHandler)(nil)
