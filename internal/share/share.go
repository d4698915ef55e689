// Package share publishes exported images and returns a link to them.
package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/ironsheep/image-framer-mcp/internal/export"
)

// ErrShareUnsupported is returned when no share backend is configured.
var ErrShareUnsupported = errors.New("sharing is not supported")

// DefaultURLExpiry is how long a presigned link stays valid.
const DefaultURLExpiry = 24 * time.Hour

// Sharer publishes an artifact and returns a URL for it.
type Sharer interface {
	Share(ctx context.Context, a *export.Artifact) (string, error)
}

// Unsupported is the Sharer used when sharing is not configured.
type Unsupported struct{}

// Share always returns ErrShareUnsupported.
func (Unsupported) Share(context.Context, *export.Artifact) (string, error) {
	return "", ErrShareUnsupported
}

// ObjectStore is the subset of *minio.Client used for sharing.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Options configures a MinioSharer.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
	URLExpiry time.Duration
}

// MinioSharer uploads artifacts to an S3-compatible bucket and returns
// presigned GET links.
type MinioSharer struct {
	store  ObjectStore
	bucket string
	prefix string
	expiry time.Duration
	logger *zap.Logger
	newID  func() string
}

// NewMinio connects to the endpoint in opts.
func NewMinio(opts Options, logger *zap.Logger) (*MinioSharer, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.New("share endpoint and bucket are required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create share client: %w", err)
	}
	return NewWithStore(client, opts, logger), nil
}

// NewWithStore builds a MinioSharer on an existing store.
func NewWithStore(store ObjectStore, opts Options, logger *zap.Logger) *MinioSharer {
	if logger == nil {
		logger = zap.NewNop()
	}
	expiry := opts.URLExpiry
	if expiry <= 0 {
		expiry = DefaultURLExpiry
	}
	return &MinioSharer{
		store:  store,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
		expiry: expiry,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

// Share uploads a under <prefix>/<uuid>/<file name>.
func (s *MinioSharer) Share(ctx context.Context, a *export.Artifact) (string, error) {
	key := s.objectKey(a.FileName)

	_, err := s.store.PutObject(ctx, s.bucket, key, bytes.NewReader(a.Bytes), int64(len(a.Bytes)), minio.PutObjectOptions{
		ContentType:        a.MimeType,
		ContentDisposition: fmt.Sprintf("inline; filename=%q", a.FileName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", a.FileName, err)
	}

	u, err := s.store.PresignedGetObject(ctx, s.bucket, key, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign link for %s: %w", a.FileName, err)
	}

	s.logger.Info("shared image", zap.String("bucket", s.bucket), zap.String("key", key))
	return u.String(), nil
}

func (s *MinioSharer) objectKey(fileName string) string {
	if s.prefix == "" {
		return path.Join(s.newID(), fileName)
	}
	return path.Join(s.prefix, s.newID(), fileName)
}
