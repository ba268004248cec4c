package service

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal/adaptor"
	"github.com/exogenesis/timevault/pkg/models"
)

// UploadURLExpiration is lifetime of pre-signed upload URL
const UploadURLExpiration = 5 * time.Minute

// S3Service is accessor to S3
type S3Service struct {
	newS3 adaptor.S3ClientFactory
}

// NewS3Service is constructor of
func NewS3Service(newS3 adaptor.S3ClientFactory) *S3Service {
	return &S3Service{
		newS3: newS3,
	}
}

func (x *S3Service) listObjects(ctx context.Context, region, bucket, prefix, delimiter string, callback func(*s3.ListObjectsV2Output)) error {
	client := x.newS3(region)
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	for page := 0; ; page++ {
		output, err := client.ListObjectsV2WithContext(ctx, input)
		if err != nil {
			return errors.Wrapf(err, "Failed to list objects: s3://%s/%s", bucket, prefix)
		}

		logger.WithFields(logrus.Fields{
			"bucket": bucket,
			"prefix": prefix,
			"page":   page,
		}).Trace("Listed objects")
		callback(output)

		if !aws.BoolValue(output.IsTruncated) || output.NextContinuationToken == nil {
			return nil
		}
		input.ContinuationToken = output.NextContinuationToken
	}
}

// ListCommonPrefixes returns all common prefixes right under the prefix.
func (x *S3Service) ListCommonPrefixes(ctx context.Context, region, bucket, prefix string) ([]string, error) {
	prefixes := []string{}
	err := x.listObjects(ctx, region, bucket, prefix, "/", func(output *s3.ListObjectsV2Output) {
		for _, p := range output.CommonPrefixes {
			prefixes = append(prefixes, aws.StringValue(p.Prefix))
		}
	})
	if err != nil {
		return nil, err
	}

	return prefixes, nil
}

// ListKeys returns keys of objects right under the prefix. Directory markers are skipped.
func (x *S3Service) ListKeys(ctx context.Context, region, bucket, prefix string) ([]string, error) {
	keys := []string{}
	err := x.listObjects(ctx, region, bucket, prefix, "/", func(output *s3.ListObjectsV2Output) {
		for _, obj := range output.Contents {
			key := aws.StringValue(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// ListAllKeys returns keys of all objects under the prefix recursively. Directory markers are skipped.
func (x *S3Service) ListAllKeys(ctx context.Context, region, bucket, prefix string) ([]string, error) {
	keys := []string{}
	err := x.listObjects(ctx, region, bucket, prefix, "", func(output *s3.ListObjectsV2Output) {
		for _, obj := range output.Contents {
			if key := aws.StringValue(obj.Key); !strings.HasSuffix(key, "/") {
				keys = append(keys, key)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// UploadURL is a pre-signed URL to put an object at the canonical path
type UploadURL struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignUpload encodes the canonical path of ts and returns pre-signed PUT URL of it.
func (x *S3Service) PresignUpload(bucket models.Bucket, codec models.PathCodec, ts models.Timestamp, extension string) (*UploadURL, error) {
	path, err := codec.Encode(ts, extension)
	if err != nil {
		return nil, err
	}

	key := bucket.ObjectKey(path)
	req, _ := x.newS3(bucket.Region).PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(bucket.Name),
		Key:    aws.String(key),
	})

	url, err := req.Presign(UploadURLExpiration)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to presign upload URL: s3://%s/%s", bucket.Name, key)
	}

	return &UploadURL{URL: url, Key: key}, nil
}

// UploadFile puts a local file to S3.
func (x *S3Service) UploadFile(ctx context.Context, filePath string, dst models.S3Object) error {
	fd, err := os.Open(filePath)
	if err != nil {
		return errors.Wrapf(err, "Failed to open file: %s", filePath)
	}
	defer fd.Close()

	_, err = x.newS3(dst.Region).PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(dst.Bucket),
		Key:    aws.String(dst.Key),
		Body:   fd,
	})
	if err != nil {
		return errors.Wrapf(err, "Failed to upload file to s3://%s/%s", dst.Bucket, dst.Key)
	}

	return nil
}
