// Package storage wraps the S3-compatible object store holding media
// binaries. MediaItem rows only point here; blob and row lifecycles
// are independent.
package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shyamtrading/siteserver/config"
)

// Upload ceilings. Violations fail before any network call.
const (
	MaxImageSize = 5 << 20  // 5MB
	MaxVideoSize = 50 << 20 // 50MB
)

var (
	ErrNotConfigured   = errors.New("object storage is not configured")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// ObjectInfo is the subset of blob metadata the diagnostics sweep needs.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Client talks to one bucket of an S3-compatible endpoint.
type Client struct {
	mc        *minio.Client
	bucket    string
	publicURL string
}

// New builds a client from configuration. Returns ErrNotConfigured
// when any required value (endpoint, keys, bucket) is absent.
func New(cfg config.StorageConfig) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}
	return &Client{mc: mc, bucket: cfg.Bucket, publicURL: publicBase(cfg)}, nil
}

func publicBase(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

// Upload stores the blob and returns its publicly resolvable URL.
func (c *Client) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := c.mc.PutObject(ctx, c.bucket, objectPath, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return c.PublicURL(objectPath), nil
}

// Remove deletes the blob. The MediaItem row must be deleted
// separately; neither deletion implies the other.
func (c *Client) Remove(ctx context.Context, objectPath string) error {
	return c.mc.RemoveObject(ctx, c.bucket, objectPath, minio.RemoveObjectOptions{})
}

// List walks the bucket under prefix, for the orphan diagnostics sweep.
func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	return out, nil
}

// Ping verifies the bucket is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", c.bucket)
	}
	return nil
}

// PublicURL derives the blob URL deterministically from the endpoint,
// bucket and object path.
func (c *Client) PublicURL(objectPath string) string {
	return c.publicURL + "/" + objectPath
}

// ValidateUpload checks MIME type and size before any I/O. The error
// names the violated constraint.
func ValidateUpload(contentType string, size int64, allowVideo bool) error {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		if size > MaxImageSize {
			return fmt.Errorf("%w: file is %d bytes, images must not exceed 5MB", ErrFileTooLarge, size)
		}
	case strings.HasPrefix(contentType, "video/"):
		if !allowVideo {
			return fmt.Errorf("%w: content type %q is not an image", ErrInvalidFileType, contentType)
		}
		if size > MaxVideoSize {
			return fmt.Errorf("%w: file is %d bytes, videos must not exceed 50MB", ErrFileTooLarge, size)
		}
	default:
		return fmt.Errorf("%w: content type %q is not an allowed image or video type", ErrInvalidFileType, contentType)
	}
	return nil
}

// MediaType maps a validated content type to the MediaItem type enum.
func MediaType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "image"
}

// ObjectPath generates a unique bucket path for an upload:
// {category}/{timestamp}-{random}.{ext}
func ObjectPath(category, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	if category == "" {
		category = "uploads"
	}
	return fmt.Sprintf("%s/%d-%s%s", category, time.Now().UnixMilli(), hex.EncodeToString(buf), ext)
}

// AltFromFilename derives an alt text from the uploaded filename.
func AltFromFilename(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(base))
}
