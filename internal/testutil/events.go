package testutil

import (
	"encoding/json"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// EncapBySQS encapslates data by events.SQSEvent and returns it.
func EncapBySQS(data ...interface{}) *events.SQSEvent {
	var event events.SQSEvent
	for _, d := range data {
		raw, err := json.Marshal(d)
		if err != nil {
			log.Fatalf("Can not marshal: %+v: %v", err, d)
		}
		event.Records = append(event.Records, events.SQSMessage{Body: string(raw)})
	}

	return &event
}

// S3Event builds S3 event notification of ObjectCreated. Keys are URL encoded as AWS does.
func S3Event(region, bucket string, keys ...string) *events.S3Event {
	var event events.S3Event
	for _, key := range keys {
		var record events.S3EventRecord
		record.EventSource = "aws:s3"
		record.EventName = "ObjectCreated:Put"
		record.AWSRegion = region
		record.S3.Bucket.Name = bucket
		record.S3.Object.Key = strings.ReplaceAll(url.QueryEscape(key), "%2F", "/")
		event.Records = append(event.Records, record)
	}

	return &event
}
