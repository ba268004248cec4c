package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exogenesis/timevault/internal/adaptor"
	"github.com/exogenesis/timevault/internal/mock"
	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/models"
)

func putObjects(t *testing.T, client adaptor.S3Client, bucket string, keys ...string) {
	for _, key := range keys {
		_, err := client.PutObjectWithContext(context.Background(), &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   strings.NewReader("media"),
		})
		require.NoError(t, err)
	}
}

type enumeratorResult struct {
	years, months, days, objects []string
}

func enumerateScenario(t *testing.T, enum service.Enumerator) enumeratorResult {
	ctx := context.Background()
	var r enumeratorResult
	var err error

	r.years, err = enum.GetYears(ctx)
	require.NoError(t, err)
	r.months, err = enum.GetMonths(ctx, 1984)
	require.NoError(t, err)
	r.days, err = enum.GetDays(ctx, 1984, 4)
	require.NoError(t, err)
	r.objects, err = enum.GetObjects(ctx, 1984, 4, 4)
	require.NoError(t, err)
	return r
}

func TestEnumerators(t *testing.T) {
	ctx := context.Background()

	lookupRepo := mock.NewLookupRepository()
	svc := newLookupService(lookupRepo, mock.NewCollectionRepository())
	_, err := svc.IngestBatch(ctx, newItems(t, scenarioKeys...))
	require.NoError(t, err)

	bucketName := uuid.New().String()
	client := mock.NewS3Client("ap-northeast-1")
	putObjects(t, client, bucketName, scenarioKeys...)
	putObjects(t, client, bucketName, "1984/04/04/") // directory marker

	bucket := models.Bucket{Region: "ap-northeast-1", Name: bucketName}
	enumerators := map[string]service.Enumerator{
		"index":  service.NewIndexEnumerator(lookupRepo),
		"bucket": service.NewBucketEnumerator(service.NewS3Service(mock.NewS3Client), bucket, models.PathCodec{PadMonthDay: true}),
	}

	expected := enumeratorResult{
		years:   []string{"1984", "1985"},
		months:  []string{"4", "5"},
		days:    []string{"4", "5"},
		objects: []string{"1984/04/04/1984-4-4-12-34-50.MOV", "1984/04/04/1984-4-4-12-34-51.MOV"},
	}

	for name, enum := range enumerators {
		t.Run(name, func(tt *testing.T) {
			assert.Equal(tt, expected, enumerateScenario(tt, enum))

			tt.Run("Missing levels are empty", func(ttt *testing.T) {
				months, err := enum.GetMonths(ctx, 2000)
				require.NoError(ttt, err)
				assert.NotNil(ttt, months)
				assert.Equal(ttt, 0, len(months))

				days, err := enum.GetDays(ctx, 1985, 12)
				require.NoError(ttt, err)
				assert.Equal(ttt, []string{}, days)

				objects, err := enum.GetObjects(ctx, 1985, 4, 30)
				require.NoError(ttt, err)
				assert.Equal(ttt, []string{}, objects)
			})
		})
	}
}

func TestIndexEnumeratorEmpty(t *testing.T) {
	enum := service.NewIndexEnumerator(mock.NewLookupRepository())
	years, err := enum.GetYears(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{}, years)
}

func TestIndexEnumeratorMalformedMembers(t *testing.T) {
	ctx := context.Background()
	repo := mock.NewLookupRepository()
	enum := service.NewIndexEnumerator(repo)
	var storageErr *models.StorageError

	t.Run("Numeric sort of stored members", func(tt *testing.T) {
		repo.SetMembers("root", "2001", "1999", "200")
		years, err := enum.GetYears(ctx)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"200", "1999", "2001"}, years)

		repo.SetMembers("1984", "12", "04", "4", "1")
		months, err := enum.GetMonths(ctx, 1984)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"1", "4", "12"}, months)
	})

	t.Run("Non integer year", func(tt *testing.T) {
		repo.SetMembers("root", "1984", "hoge")
		_, err := enum.GetYears(ctx)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Signed month", func(tt *testing.T) {
		repo.SetMembers("1984", "+4")
		_, err := enum.GetMonths(ctx, 1984)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Month out of range", func(tt *testing.T) {
		repo.SetMembers("1984", "4", "13")
		_, err := enum.GetMonths(ctx, 1984)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Day out of range", func(tt *testing.T) {
		repo.SetMembers("1984-4", "0")
		_, err := enum.GetDays(ctx, 1984, 4)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Object key of other date", func(tt *testing.T) {
		repo.SetMembers("1984-4-4", "1984/4/5/1984-4-5-12-34-50.MOV")
		_, err := enum.GetObjects(ctx, 1984, 4, 4)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Broken object key", func(tt *testing.T) {
		repo.SetMembers("1984-4-4", "something.MOV")
		_, err := enum.GetObjects(ctx, 1984, 4, 4)
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Backend failure", func(tt *testing.T) {
		failing := mock.NewLookupRepository()
		failing.GetError = errors.New("timeout")
		_, err := service.NewIndexEnumerator(failing).GetYears(ctx)
		assert.True(tt, errors.As(err, &storageErr))
	})
}

func TestBucketEnumerator(t *testing.T) {
	ctx := context.Background()

	t.Run("Key prefix and unpadded directories", func(tt *testing.T) {
		bucketName := uuid.New().String()
		client := mock.NewS3Client("ap-northeast-1")
		putObjects(tt, client, bucketName,
			"media/2020/1/31/2020-1-31-0-0-0.jpg",
			"media/2020/1/2/2020-1-2-0-0-0.jpg",
			"media/2020/10/2/2020-10-2-0-0-0.jpg",
			"other/2019/1/1/2019-1-1-0-0-0.jpg",
		)

		bucket := models.Bucket{Region: "ap-northeast-1", Name: bucketName, Prefix: "media"}
		enum := service.NewBucketEnumerator(service.NewS3Service(mock.NewS3Client), bucket, models.PathCodec{})

		years, err := enum.GetYears(ctx)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"2020"}, years)

		months, err := enum.GetMonths(ctx, 2020)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"1", "10"}, months)

		days, err := enum.GetDays(ctx, 2020, 1)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"2", "31"}, days)

		objects, err := enum.GetObjects(ctx, 2020, 1, 31)
		require.NoError(tt, err)
		assert.Equal(tt, []string{"2020/1/31/2020-1-31-0-0-0.jpg"}, objects)
	})

	t.Run("All pages are read", func(tt *testing.T) {
		bucketName := uuid.New().String()
		var keys []string
		for day := 1; day <= 28; day++ {
			keys = append(keys, fmt.Sprintf("2021/02/%02d/2021-2-%d-1-2-3.png", day, day))
		}

		client := mock.NewS3Client("ap-northeast-1").(*mock.S3Client)
		client.MaxKeys = 5
		putObjects(tt, client, bucketName, keys...)

		bucket := models.Bucket{Region: "ap-northeast-1", Name: bucketName}
		newS3 := func(region string) adaptor.S3Client { return client }
		enum := service.NewBucketEnumerator(service.NewS3Service(newS3), bucket, models.PathCodec{PadMonthDay: true})

		days, err := enum.GetDays(ctx, 2021, 2)
		require.NoError(tt, err)
		assert.Equal(tt, 28, len(days))
		assert.Equal(tt, "1", days[0])
		assert.Equal(tt, "28", days[27])
	})

	t.Run("Stray directory is storage error", func(tt *testing.T) {
		bucketName := uuid.New().String()
		client := mock.NewS3Client("ap-northeast-1")
		putObjects(tt, client, bucketName, "2020/1/1/2020-1-1-0-0-0.jpg", "tmp/file")

		bucket := models.Bucket{Region: "ap-northeast-1", Name: bucketName}
		enum := service.NewBucketEnumerator(service.NewS3Service(mock.NewS3Client), bucket, models.PathCodec{})

		_, err := enum.GetYears(ctx)
		var storageErr *models.StorageError
		assert.True(tt, errors.As(err, &storageErr))
	})

	t.Run("Missing bucket is storage error", func(tt *testing.T) {
		bucket := models.Bucket{Region: "ap-northeast-1", Name: uuid.New().String()}
		enum := service.NewBucketEnumerator(service.NewS3Service(mock.NewS3Client), bucket, models.PathCodec{})

		_, err := enum.GetYears(ctx)
		var storageErr *models.StorageError
		assert.True(tt, errors.As(err, &storageErr))
	})
}
