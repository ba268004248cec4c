package adaptor

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3ClientFactory is interface S3Client constructor
type S3ClientFactory func(region string) S3Client

// S3Client is interface of AWS S3 SDK
type S3Client interface {
	ListObjectsV2WithContext(ctx aws.Context, input *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	PutObjectRequest(input *s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput)
}

// NewS3Client creates actual AWS S3 SDK client
func NewS3Client(region string) S3Client {
	ssn := session.New(&aws.Config{Region: aws.String(region)})
	return s3.New(ssn)
}

// NewS3ClientFactory returns factory of S3 client connecting to endpoint,
// e.g. MinIO or LocalStack. Path style addressing is used with a custom endpoint.
func NewS3ClientFactory(endpoint string) S3ClientFactory {
	if endpoint == "" {
		return NewS3Client
	}

	return func(region string) S3Client {
		ssn := session.New(&aws.Config{
			Region:           aws.String(region),
			Endpoint:         aws.String(endpoint),
			S3ForcePathStyle: aws.Bool(true),
		})
		return s3.New(ssn)
	}
}
