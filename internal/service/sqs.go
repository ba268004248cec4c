package service

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/internal/adaptor"
)

// SQSService is accessor to SQS
type SQSService struct {
	newSQS adaptor.SQSClientFactory
}

// NewSQSService is constructor of
func NewSQSService(newSQS adaptor.SQSClientFactory) *SQSService {
	return &SQSService{
		newSQS: newSQS,
	}
}

var sqsURLPatterns = []*regexp.Regexp{
	// https://sqs.ap-northeast-1.amazonaws.com/21xxxxxxxxxxx/test-queue
	regexp.MustCompile(`^https://sqs\.([a-z0-9\-]+)\.amazonaws\.com/`),
	// https://us-west-1.queue.amazonaws.com/2xxxxxxxxxx/test-queue
	regexp.MustCompile(`^https://([a-z0-9\-]+)\.queue\.amazonaws\.com/`),
}

// ErrInvalidQueueURL means region can not be found in the SQS URL
var ErrInvalidQueueURL = errors.New("Invalid SQS Queue URL")

func sqsURLToRegion(url string) (string, error) {
	for _, ptn := range sqsURLPatterns {
		if group := ptn.FindStringSubmatch(url); len(group) == 2 {
			return group[1], nil
		}
	}
	return "", errors.Wrap(ErrInvalidQueueURL, url)
}

// SendQueue marshals msg to JSON and sends it to the queue
func (x *SQSService) SendQueue(ctx context.Context, msg interface{}, url string) error {
	region, err := sqsURLToRegion(url)
	if err != nil {
		logger.WithField("url", url).Error("Failed to parse SQS URL")
		return err
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "Fail to marshal message: %v", msg)
	}

	input := sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(string(raw)),
	}
	resp, err := x.newSQS(region).SendMessageWithContext(ctx, &input)
	if err != nil {
		return errors.Wrapf(err, "Fail to send SQS message: %s", url)
	}

	logger.WithField("resp", resp).Trace("Sent SQS message")

	return nil
}
