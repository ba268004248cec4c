package handler

import (
	"encoding/json"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/internal/adaptor"
	"github.com/exogenesis/timevault/internal/repository"
	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/api"
)

// Arguments has environment variables, Event record and adaptor
type Arguments struct {
	EnvVars
	Event interface{}

	NewS3          adaptor.S3ClientFactory         `json:"-"`
	NewSQS         adaptor.SQSClientFactory        `json:"-"`
	LookupRepo     repository.LookupRepository     `json:"-"`
	CollectionRepo repository.CollectionRepository `json:"-"`

	lookupService *service.LookupService
}

var lookupServiceMutex sync.Mutex

// EventRecord is decapslated event data (e.g. Body of SQS event)
type EventRecord []byte

// Bind unmarshal event record to object
func (x EventRecord) Bind(ev interface{}) error {
	if err := json.Unmarshal(x, ev); err != nil {
		Logger.WithField("raw", string(x)).Error("json.Unmarshal")
		return errors.Wrap(err, "Failed json.Unmarshal in DecodeEvent")
	}
	return nil
}

// DecapSQSEvent decapslates wrapped body data in SQSEvent
func (x *Arguments) DecapSQSEvent() ([]EventRecord, error) {
	var sqsEvent events.SQSEvent
	if err := x.BindEvent(&sqsEvent); err != nil {
		return nil, err
	}

	var output []EventRecord
	for _, record := range sqsEvent.Records {
		output = append(output, EventRecord(record.Body))
	}

	return output, nil
}

// BindEvent directly decode event data and unmarshal to ev object.
func (x *Arguments) BindEvent(ev interface{}) error {
	raw, err := json.Marshal(x.Event)
	if err != nil {
		Logger.WithField("event", x.Event).Error("json.Marshal")
		return errors.Wrap(err, "Failed to marshal lambda event in BindEvent")
	}

	if err := json.Unmarshal(raw, ev); err != nil {
		Logger.WithField("raw", string(raw)).Error("json.Unmarshal")
		return errors.Wrap(err, "Failed json.Unmarshal in BindEvent")
	}

	return nil
}

// LookupService provides LookupService with repositories (DynamoDB by default).
// It is created at first call and shared by later calls and copies of Arguments
// made after that, so merges of same key are serialized between invocations.
func (x *Arguments) LookupService() *service.LookupService {
	lookupServiceMutex.Lock()
	defer lookupServiceMutex.Unlock()

	if x.lookupService == nil {
		x.lookupService = service.NewLookupService(x.lookupRepo(), x.collectionRepo(), &service.LookupServiceArguments{
			ConflictRetryLimit: x.ConflictRetryLimit,
			MaxConcurrency:     x.MaxConcurrency,
		})
	}
	return x.lookupService
}

// IndexEnumerator provides enumerator of the lookup index
func (x *Arguments) IndexEnumerator() *service.IndexEnumerator {
	return service.NewIndexEnumerator(x.lookupRepo())
}

// BucketEnumerator provides enumerator of the standard bucket
func (x *Arguments) BucketEnumerator() *service.BucketEnumerator {
	return service.NewBucketEnumerator(x.S3Service(), x.Bucket(), x.Codec())
}

// S3Service provides service.S3Service with S3 adaptor
func (x *Arguments) S3Service() *service.S3Service {
	return service.NewS3Service(x.newS3())
}

// SQSService provides service.SQSService with SQS adaptor
func (x *Arguments) SQSService() *service.SQSService {
	return service.NewSQSService(x.newSQS())
}

// APIArguments provides arguments of HTTP API routes
func (x *Arguments) APIArguments() api.Arguments {
	args := api.Arguments{
		Index: x.IndexEnumerator(),
		Codec: x.Codec(),
	}

	if x.BucketName != "" {
		args.Bucket = x.BucketEnumerator()
		args.S3 = x.S3Service()
		args.UploadBucket = x.Bucket()
	}

	return args
}

// SetupRepositories creates repositories that are not injected yet and the
// LookupService over them. Call it once and share Arguments between invocations
// to reuse clients.
func (x *Arguments) SetupRepositories() {
	x.LookupRepo = x.lookupRepo()
	x.CollectionRepo = x.collectionRepo()
	x.LookupService()
}

func (x *Arguments) lookupRepo() repository.LookupRepository {
	if x.LookupRepo != nil {
		return x.LookupRepo
	}
	return repository.NewLookupDynamoDB(x.AwsRegion, x.lookupTable(), x.DynamoEndpoint)
}

func (x *Arguments) collectionRepo() repository.CollectionRepository {
	if x.CollectionRepo != nil {
		return x.CollectionRepo
	}
	return repository.NewCollectionDynamoDB(x.AwsRegion, x.collectionTable(), x.DynamoEndpoint)
}

func (x *Arguments) newS3() adaptor.S3ClientFactory {
	if x.NewS3 != nil {
		return x.NewS3
	}
	return adaptor.NewS3ClientFactory(x.S3Endpoint)
}

func (x *Arguments) newSQS() adaptor.SQSClientFactory {
	if x.NewSQS != nil {
		return x.NewSQS
	}
	return adaptor.NewSQSClient
}
