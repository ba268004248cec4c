package mock

import (
	"errors"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/exogenesis/timevault/internal/adaptor"
)

const defaultMaxKeys = 1000

// NewS3Client is constructor of S3 Mock. All clients share one data store,
// then tests should use unique bucket names.
func NewS3Client(region string) adaptor.S3Client {
	return &S3Client{
		Region: region,
		data:   mockS3ClientDataStore,
	}
}

// S3Client is on memory S3Client mock
type S3Client struct {
	Region string
	// MaxKeys overrides page size of ListObjectsV2 if not zero
	MaxKeys int64
	// ListCount is number of ListObjectsV2 calls
	ListCount int
	data      *s3DataStore
}

type s3DataStore struct {
	mutex   sync.Mutex
	buckets map[string]map[string][]byte
}

var mockS3ClientDataStore = &s3DataStore{
	buckets: map[string]map[string][]byte{},
}

// PutObjectWithContext of S3Client saves []bytes to memory
func (x *S3Client) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	var raw []byte
	if input.Body != nil {
		var err error
		if raw, err = ioutil.ReadAll(input.Body); err != nil {
			return nil, err
		}
	}

	x.data.mutex.Lock()
	defer x.data.mutex.Unlock()

	bucket, ok := x.data.buckets[*input.Bucket]
	if !ok {
		bucket = map[string][]byte{}
		x.data.buckets[*input.Bucket] = bucket
	}
	bucket[*input.Key] = raw

	return &s3.PutObjectOutput{}, nil
}

// PutObjectRequest of S3Client builds a request of actual SDK with dummy credentials.
// It can be presigned without network.
func (x *S3Client) PutObjectRequest(input *s3.PutObjectInput) (*request.Request, *s3.PutObjectOutput) {
	ssn := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String(x.Region),
		Credentials: credentials.NewStaticCredentials("AKIAMOCK", "mock-secret", ""),
	}))
	return s3.New(ssn).PutObjectRequest(input)
}

// ListObjectsV2WithContext of S3Client supports Prefix, Delimiter, MaxKeys and ContinuationToken.
func (x *S3Client) ListObjectsV2WithContext(ctx aws.Context, input *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error) {
	x.data.mutex.Lock()
	defer x.data.mutex.Unlock()
	x.ListCount++

	bucket, ok := x.data.buckets[aws.StringValue(input.Bucket)]
	if !ok {
		return nil, errors.New(s3.ErrCodeNoSuchBucket)
	}

	prefix := aws.StringValue(input.Prefix)
	delimiter := aws.StringValue(input.Delimiter)

	// entry name -> is common prefix
	entries := map[string]bool{}
	for key := range bucket {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := key[len(prefix):]
		if idx := strings.Index(rest, delimiter); delimiter != "" && idx >= 0 {
			entries[prefix+rest[:idx+len(delimiter)]] = true
		} else {
			entries[key] = false
		}
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		if token := aws.StringValue(input.ContinuationToken); token != "" && name <= token {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	maxKeys := int64(defaultMaxKeys)
	if x.MaxKeys > 0 {
		maxKeys = x.MaxKeys
	}
	if input.MaxKeys != nil && *input.MaxKeys < maxKeys {
		maxKeys = *input.MaxKeys
	}

	output := &s3.ListObjectsV2Output{
		Name:        input.Bucket,
		Prefix:      input.Prefix,
		Delimiter:   input.Delimiter,
		IsTruncated: aws.Bool(false),
	}
	if int64(len(names)) > maxKeys {
		names = names[:maxKeys]
		output.IsTruncated = aws.Bool(true)
		output.NextContinuationToken = aws.String(names[len(names)-1])
	}

	for _, name := range names {
		if entries[name] {
			output.CommonPrefixes = append(output.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(name)})
		} else {
			output.Contents = append(output.Contents, &s3.Object{
				Key:  aws.String(name),
				Size: aws.Int64(int64(len(bucket[name]))),
			})
		}
	}
	output.KeyCount = aws.Int64(int64(len(names)))

	return output, nil
}
