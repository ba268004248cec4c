package service_test

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exogenesis/timevault/internal/mock"
	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/models"
)

func TestS3UploadFile(t *testing.T) {
	ctx := context.Background()
	bucket := uuid.New().String()
	svc := service.NewS3Service(mock.NewS3Client)

	fd, err := ioutil.TempFile("", "*.mov")
	require.NoError(t, err)
	defer os.Remove(fd.Name())
	fd.Write([]byte("five timeless words"))
	fd.Close()

	dst := models.S3Object{Region: "dokoka", Bucket: bucket, Key: "1984/4/4/1984-4-4-12-34-50.mov"}
	require.NoError(t, svc.UploadFile(ctx, fd.Name(), dst))

	keys, err := svc.ListAllKeys(ctx, "dokoka", bucket, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1984/4/4/1984-4-4-12-34-50.mov"}, keys)

	t.Run("Missing file", func(tt *testing.T) {
		err := svc.UploadFile(ctx, "/no/such/file.mov", dst)
		assert.Error(tt, err)
	})
}

func TestS3List(t *testing.T) {
	ctx := context.Background()
	bucket := uuid.New().String()
	svc := service.NewS3Service(mock.NewS3Client)

	putObjects(t, mock.NewS3Client("dokoka"), bucket,
		"a/1/x", "a/1/y", "a/2/", "a/z", "b")

	prefixes, err := svc.ListCommonPrefixes(ctx, "dokoka", bucket, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1/", "a/2/"}, prefixes)

	keys, err := svc.ListKeys(ctx, "dokoka", bucket, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/z"}, keys)

	all, err := svc.ListAllKeys(ctx, "dokoka", bucket, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1/x", "a/1/y", "a/z"}, all)
}

func TestPresignUpload(t *testing.T) {
	svc := service.NewS3Service(mock.NewS3Client)
	bucket := models.Bucket{Region: "ap-northeast-1", Name: "my-vault", Prefix: "media"}

	t.Run("Canonical key", func(tt *testing.T) {
		upload, err := svc.PresignUpload(bucket, models.PathCodec{}, models.ISOString("1984-04-04T12:42:42Z"), ".MOV")
		require.NoError(tt, err)
		assert.Equal(tt, "media/1984/4/4/1984-4-4-12-42-42.MOV", upload.Key)
		assert.Contains(tt, upload.URL, "media/1984/4/4/1984-4-4-12-42-42.MOV")
		assert.Contains(tt, upload.URL, "X-Amz-Expires=300")
	})

	t.Run("Codec error", func(tt *testing.T) {
		_, err := svc.PresignUpload(bucket, models.PathCodec{}, models.ISOString("yesterday"), "mov")
		assert.True(tt, errors.Is(err, models.ErrInvalidTimestamp))

		_, err = svc.PresignUpload(bucket, models.PathCodec{}, models.Millis(0), "")
		assert.True(tt, errors.Is(err, models.ErrInvalidExtension))
	})
}
