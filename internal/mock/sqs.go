package mock

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/google/uuid"

	"github.com/exogenesis/timevault/internal/adaptor"
)

// SQSClient is mock of AWS SQS SDK
type SQSClient struct {
	mutex  sync.Mutex
	Input  []*sqs.SendMessageInput
	Region string
}

// NewSQSClient creates mock SQS client
func NewSQSClient(region string) adaptor.SQSClient {
	return &SQSClient{
		Region: region,
	}
}

// SendMessageWithContext of mock just stores SendMessage input
func (x *SQSClient) SendMessageWithContext(ctx aws.Context, input *sqs.SendMessageInput, opts ...request.Option) (*sqs.SendMessageOutput, error) {
	x.mutex.Lock()
	defer x.mutex.Unlock()

	x.Input = append(x.Input, input)
	return &sqs.SendMessageOutput{
		MessageId: aws.String(uuid.New().String()),
	}, nil
}
