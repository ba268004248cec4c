package models

import (
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// S3Object is a location of an object in S3
type S3Object struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// NewS3ObjectFromRecord converts a record of S3 event notification. Object key
// in the notification is URL encoded.
func NewS3ObjectFromRecord(record events.S3EventRecord) (*S3Object, error) {
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid object key in S3 event: %s", record.S3.Object.Key)
	}

	return &S3Object{
		Region: record.AWSRegion,
		Bucket: record.S3.Bucket.Name,
		Key:    key,
	}, nil
}

// IsDir is true if the key is a directory marker
func (x *S3Object) IsDir() bool {
	return strings.HasSuffix(x.Key, "/")
}

// Bucket is S3 bucket and an optional key prefix where canonical paths are stored.
type Bucket struct {
	Region string
	Name   string
	Prefix string
}

// BasePrefix returns the prefix with a trailing slash, or empty string.
func (x Bucket) BasePrefix() string {
	if x.Prefix == "" || strings.HasSuffix(x.Prefix, "/") {
		return x.Prefix
	}
	return x.Prefix + "/"
}

// ObjectKey returns key of the canonical path in the bucket.
func (x Bucket) ObjectKey(path string) string {
	return x.BasePrefix() + ObjectKey(path)
}

// RelativeKey strips the prefix from an object key in the bucket. It returns
// false if the key is out of the prefix.
func (x Bucket) RelativeKey(key string) (string, bool) {
	base := x.BasePrefix()
	if !strings.HasPrefix(key, base) {
		return "", false
	}
	return key[len(base):], true
}
