package share

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-framer-mcp/internal/export"
)

type fakeStore struct {
	bucket      string
	key         string
	body        []byte
	contentType string
	expiry      time.Duration
	putErr      error
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.contentType = bucket, object, body, opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func (f *fakeStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	f.expiry = expiry
	return url.Parse("https://s3.example.com/" + bucket + "/" + object + "?X-Amz-Signature=abc")
}

func testArtifact() *export.Artifact {
	return &export.Artifact{
		Preset:   "square",
		FileName: "square-image.png",
		MimeType: "image/png",
		Bytes:    []byte("png-bytes"),
	}
}

func TestUnsupported(t *testing.T) {
	_, err := Unsupported{}.Share(context.Background(), testArtifact())
	assert.ErrorIs(t, err, ErrShareUnsupported)
	assert.Equal(t, "sharing is not supported", err.Error())
}

func TestMinioSharer_Share(t *testing.T) {
	store := &fakeStore{}
	s := NewWithStore(store, Options{Bucket: "frames", Prefix: "/shared/"}, nil)
	s.newID = func() string { return "0b5e" }

	link, err := s.Share(context.Background(), testArtifact())
	require.NoError(t, err)

	assert.Equal(t, "frames", store.bucket)
	assert.Equal(t, "shared/0b5e/square-image.png", store.key)
	assert.Equal(t, []byte("png-bytes"), store.body)
	assert.Equal(t, "image/png", store.contentType)
	assert.Equal(t, DefaultURLExpiry, store.expiry)
	assert.Equal(t, "https://s3.example.com/frames/shared/0b5e/square-image.png?X-Amz-Signature=abc", link)
}

func TestMinioSharer_NoPrefixUniqueKeys(t *testing.T) {
	store := &fakeStore{}
	s := NewWithStore(store, Options{Bucket: "frames", URLExpiry: time.Hour}, nil)

	_, err := s.Share(context.Background(), testArtifact())
	require.NoError(t, err)
	first := store.key

	_, err = s.Share(context.Background(), testArtifact())
	require.NoError(t, err)

	assert.NotEqual(t, first, store.key)
	assert.Regexp(t, `^[0-9a-f-]{36}/square-image\.png$`, store.key)
	assert.Equal(t, time.Hour, store.expiry)
}

func TestMinioSharer_UploadError(t *testing.T) {
	store := &fakeStore{putErr: errors.New("bucket missing")}
	s := NewWithStore(store, Options{Bucket: "frames"}, nil)

	_, err := s.Share(context.Background(), testArtifact())
	assert.ErrorContains(t, err, "bucket missing")
}

func TestNewMinio_RequiresBucket(t *testing.T) {
	_, err := NewMinio(Options{Endpoint: "localhost:9000"}, nil)
	assert.Error(t, err)
}
