package main

import (
	"context"

	"github.com/exogenesis/timevault/pkg/handler"
	"github.com/exogenesis/timevault/pkg/models"
)

var logger = handler.Logger

func main() {
	handler.StartLambda(Handler)
}

// Handler ingests objects in retry queue. Failure makes SQS redeliver the message.
func Handler(ctx context.Context, args handler.Arguments) error {
	records, err := args.DecapSQSEvent()
	if err != nil {
		return err
	}

	for _, record := range records {
		var q models.IngestQueue
		if err := record.Bind(&q); err != nil {
			return err
		}

		logger.WithField("queue", q).Info("Retry ingestion")
		if _, err := args.IngestObjects(ctx, &q, false); err != nil {
			return err
		}
	}

	return nil
}
