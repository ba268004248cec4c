package handler

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal"
	"github.com/exogenesis/timevault/pkg/models"
)

// IngestObjects indexes object keys of q. Keys out of BucketPrefix, directory
// markers and keys that are not canonical paths are skipped. If requeue is true
// and RetryQueueURL is set, keys whose record could not be written are sent to
// the retry queue instead of failing.
func (x *Arguments) IngestObjects(ctx context.Context, q *models.IngestQueue, requeue bool) (*models.IngestQueue, error) {
	bucket := models.Bucket{Region: q.Region, Name: q.Vault, Prefix: x.BucketPrefix}

	var items []*models.CollectionItem
	for _, key := range q.Keys {
		obj := models.S3Object{Region: q.Region, Bucket: q.Vault, Key: key}
		rel, ok := bucket.RelativeKey(key)
		if !ok || obj.IsDir() {
			Logger.WithField("object", obj).Debug("Skip object")
			continue
		}

		item, err := models.NewCollectionItem(rel, q.Vault)
		if err != nil {
			internal.HandleError(errors.Wrapf(err, "Skip object that is not a canonical path: s3://%s/%s", q.Vault, key))
			continue
		}
		items = append(items, item)
	}

	report, err := x.LookupService().IngestBatch(ctx, items)
	if err == nil {
		Logger.WithFields(logrus.Fields{"vault": q.Vault, "report": report}).Info("Ingested objects")
		return nil, nil
	}

	var partial *models.PartialIngestionError
	if !requeue || x.RetryQueueURL == "" || !errors.As(err, &partial) {
		return nil, err
	}

	retry := &models.IngestQueue{Region: q.Region, Vault: q.Vault}
	for _, key := range partial.FailedItems {
		retry.Keys = append(retry.Keys, bucket.BasePrefix()+key)
	}

	if err := x.SQSService().SendQueue(ctx, retry, x.RetryQueueURL); err != nil {
		return nil, errors.Wrapf(err, "Failed to send retry queue after %v", partial)
	}

	Logger.WithFields(logrus.Fields{
		"vault":  q.Vault,
		"failed": partial.FailedItems,
		"error":  partial.Err,
	}).Warn("Sent failed objects to retry queue")
	return retry, nil
}
