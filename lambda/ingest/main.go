package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/exogenesis/timevault/pkg/handler"
	"github.com/exogenesis/timevault/pkg/models"
)

var logger = handler.Logger

func main() {
	handler.StartLambda(Handler)
}

// Handler ingests objects of S3 ObjectCreated event notification
func Handler(ctx context.Context, args handler.Arguments) error {
	var event events.S3Event
	if err := args.BindEvent(&event); err != nil {
		return err
	}

	queues := map[models.Bucket]*models.IngestQueue{}
	var order []models.Bucket
	for _, record := range event.Records {
		obj, err := models.NewS3ObjectFromRecord(record)
		if err != nil {
			return err
		}

		b := models.Bucket{Region: obj.Region, Name: obj.Bucket}
		q, ok := queues[b]
		if !ok {
			q = &models.IngestQueue{Region: obj.Region, Vault: obj.Bucket}
			queues[b] = q
			order = append(order, b)
		}
		q.Keys = append(q.Keys, obj.Key)
	}

	for _, b := range order {
		logger.WithField("queue", queues[b]).Debug("Ingest objects")
		if _, err := args.IngestObjects(ctx, queues[b], true); err != nil {
			return err
		}
	}

	return nil
}
