package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/internal/domain/repository"
	"movement-hold-service/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsMaxBatch is the SQS limit on entries per SendMessageBatch call
const sqsMaxBatch = 10

// SQSSendAPI is the part of the SQS client the publisher uses
type SQSSendAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	SendMessageBatch(ctx context.Context, params *sqs.SendMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageBatchOutput, error)
}

// SQSNotificationRepository publishes outbound notifications to SQS queues
type SQSNotificationRepository struct {
	client SQSSendAPI
	logger logger.Logger

	mu        sync.Mutex
	queueURLs map[string]string
}

// NewSQSNotificationRepository creates a new SQS publisher
func NewSQSNotificationRepository(client SQSSendAPI, logger logger.Logger) *SQSNotificationRepository {
	return &SQSNotificationRepository{
		client:    client,
		logger:    logger,
		queueURLs: make(map[string]string),
	}
}

var _ repository.NotificationRepository = (*SQSNotificationRepository)(nil)

// SendBatch sends messages to the destination queue in chunks of ten. Any failed entry
// fails the whole call so the caller's message is redelivered.
func (r *SQSNotificationRepository) SendBatch(ctx context.Context, destination string, messages []entity.OutboundMessage) error {
	if len(messages) == 0 {
		return nil
	}

	queueURL, err := r.queueURL(ctx, destination)
	if err != nil {
		return err
	}

	for start := 0; start < len(messages); start += sqsMaxBatch {
		end := start + sqsMaxBatch
		if end > len(messages) {
			end = len(messages)
		}

		entries := make([]types.SendMessageBatchRequestEntry, 0, end-start)
		for _, msg := range messages[start:end] {
			entries = append(entries, types.SendMessageBatchRequestEntry{
				Id:                aws.String(msg.ID),
				MessageBody:       aws.String(msg.Body),
				MessageAttributes: toMessageAttributes(msg.Attributes),
			})
		}

		out, err := r.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
			QueueUrl: aws.String(queueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("failed to send batch to %s: %w", destination, err)
		}

		if len(out.Failed) > 0 {
			ids := make([]string, 0, len(out.Failed))
			for _, f := range out.Failed {
				ids = append(ids, aws.ToString(f.Id))
			}
			return fmt.Errorf("%d of %d messages to %s failed: %s", len(out.Failed), len(entries), destination, strings.Join(ids, ","))
		}
	}

	r.logger.Debug("Sent notification batch", "destination", destination, "count", len(messages))
	return nil
}

func (r *SQSNotificationRepository) queueURL(ctx context.Context, destination string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.queueURLs[destination]; ok {
		return u, nil
	}

	out, err := r.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(destination)})
	if err != nil {
		return "", fmt.Errorf("failed to resolve queue %s: %w", destination, err)
	}

	u := aws.ToString(out.QueueUrl)
	r.queueURLs[destination] = u
	return u, nil
}

func toMessageAttributes(attrs map[string]string) map[string]types.MessageAttributeValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}
	return out
}
