package handler

import (
	"github.com/Netflix/go-env"

	"github.com/exogenesis/timevault/pkg/models"
)

// EnvVars has all environment variables that should be given to Lambda function
type EnvVars struct {
	// From arguments
	TableName           string `env:"TABLE_NAME"`
	LookupTableName     string `env:"LOOKUP_TABLE_NAME"`
	CollectionTableName string `env:"COLLECTION_TABLE_NAME"`
	BucketName          string `env:"STANDARD_BUCKET_NAME"`
	BucketPrefix        string `env:"BUCKET_PREFIX"`
	PadMonthDay         bool   `env:"PAD_MONTH_DAY"`
	ConflictRetryLimit  int    `env:"CONFLICT_RETRY_LIMIT"`
	MaxConcurrency      int    `env:"MAX_CONCURRENCY"`
	SentryDSN           string `env:"SENTRY_DSN"`
	SentryEnv           string `env:"SENTRY_ENVIRONMENT"`
	LogLevel            string `env:"LOG_LEVEL"`

	// Local emulators
	DynamoEndpoint string `env:"DYNAMO_ENDPOINT"`
	S3Endpoint     string `env:"S3_ENDPOINT"`

	// From resource
	RetryQueueURL string `env:"RETRY_QUEUE_URL"`

	// From AWS Lambda
	AwsRegion string `env:"AWS_REGION"`
}

// BindEnvVars loads environments variables and set them to EnvVars
func (x *EnvVars) BindEnvVars() error {
	if _, err := env.UnmarshalFromEnviron(x); err != nil {
		Logger.WithError(err).Error("Failed UnmarshalFromEviron")
		return err
	}

	return nil
}

func (x *EnvVars) lookupTable() string {
	if x.LookupTableName != "" {
		return x.LookupTableName
	}
	return x.TableName
}

func (x *EnvVars) collectionTable() string {
	if x.CollectionTableName != "" {
		return x.CollectionTableName
	}
	return x.TableName
}

// Codec returns PathCodec of the bucket
func (x *EnvVars) Codec() models.PathCodec {
	return models.PathCodec{PadMonthDay: x.PadMonthDay}
}

// Bucket returns the standard bucket where media is stored
func (x *EnvVars) Bucket() models.Bucket {
	return models.Bucket{
		Region: x.AwsRegion,
		Name:   x.BucketName,
		Prefix: x.BucketPrefix,
	}
}
