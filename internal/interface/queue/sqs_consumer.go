package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"movement-hold-service/internal/domain/entity"
	"movement-hold-service/pkg/logger"
	"movement-hold-service/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	maxMessages       = 10
	visibilityTimeout = 60
)

// SQSReceiveAPI is the part of the SQS client the consumer uses
type SQSReceiveAPI interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Handler processes one message. A nil return acknowledges it.
type Handler interface {
	Dispatch(ctx context.Context, msg entity.InboundMessage) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, msg entity.InboundMessage) error

// Dispatch implements Handler
func (f HandlerFunc) Dispatch(ctx context.Context, msg entity.InboundMessage) error {
	return f(ctx, msg)
}

// Consumer long-polls an SQS queue and handles each batch concurrently. Only messages
// whose handler succeeded are deleted; the rest reappear after the visibility timeout.
type Consumer struct {
	client       SQSReceiveAPI
	waitSeconds  int32
	errorBackoff time.Duration
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewConsumer creates a new SQS consumer
func NewConsumer(client SQSReceiveAPI, waitSeconds int, metrics *metrics.Metrics, logger logger.Logger) *Consumer {
	return &Consumer{
		client:       client,
		waitSeconds:  int32(waitSeconds),
		errorBackoff: time.Second,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run consumes queueName until ctx is cancelled. It returns an error only when the queue
// cannot be resolved at startup.
func (c *Consumer) Run(ctx context.Context, queueName string, handler Handler) error {
	out, err := c.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queueName)})
	if err != nil {
		return fmt.Errorf("failed to resolve queue %s: %w", queueName, err)
	}
	queueURL := aws.ToString(out.QueueUrl)
	log := c.logger.With("queue", queueName)
	log.Info("Queue consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Queue consumer stopped")
			return nil
		default:
		}

		resp, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(queueURL),
			MaxNumberOfMessages:   maxMessages,
			VisibilityTimeout:     visibilityTimeout,
			WaitTimeSeconds:       c.waitSeconds,
			MessageAttributeNames: []string{entity.AttributeResourceType, entity.AttributeContentEncoding},
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("Failed to receive messages", "error", err)
			c.metrics.IncError("receive")
			c.sleep(ctx)
			continue
		}

		if len(resp.Messages) > 0 {
			c.processBatch(ctx, queueName, queueURL, resp.Messages, handler)
		}
	}
}

func (c *Consumer) processBatch(ctx context.Context, queueName, queueURL string, messages []types.Message, handler Handler) {
	succeeded := make([]bool, len(messages))

	var wg sync.WaitGroup
	for i := range messages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			succeeded[i] = c.handle(ctx, queueName, messages[i], handler)
		}(i)
	}
	wg.Wait()

	// Acknowledgement must outlive a shutdown that started after the handler succeeded.
	ackCtx := context.WithoutCancel(ctx)
	for i, msg := range messages {
		if !succeeded[i] {
			continue
		}
		_, err := c.client.DeleteMessage(ackCtx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		})
		if err != nil {
			c.logger.Error("Failed to delete message",
				"queue", queueName,
				"messageId", aws.ToString(msg.MessageId),
				"error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, queueName string, msg types.Message, handler Handler) (ok bool) {
	inbound := toInbound(msg)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panicked",
				"queue", queueName,
				"messageId", inbound.MessageID,
				"resourceType", inbound.ResourceType,
				"panic", r)
			ok = false
		}
		c.metrics.ObserveMessage(queueName, ok, time.Since(start))
	}()

	err := handler.Dispatch(ctx, inbound)
	if err == nil {
		return true
	}

	if errors.Is(err, context.Canceled) {
		c.logger.Warn("Message handling cancelled, leaving for redelivery",
			"queue", queueName,
			"messageId", inbound.MessageID)
	} else {
		c.logger.Error("Failed to handle message",
			"queue", queueName,
			"messageId", inbound.MessageID,
			"resourceType", inbound.ResourceType,
			"error", err)
	}
	return false
}

func (c *Consumer) sleep(ctx context.Context) {
	if c.errorBackoff <= 0 {
		return
	}
	t := time.NewTimer(c.errorBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func toInbound(msg types.Message) entity.InboundMessage {
	return entity.InboundMessage{
		MessageID:       aws.ToString(msg.MessageId),
		ResourceType:    stringAttribute(msg, entity.AttributeResourceType),
		ContentEncoding: stringAttribute(msg, entity.AttributeContentEncoding),
		Body:            aws.ToString(msg.Body),
	}
}

func stringAttribute(msg types.Message, name string) string {
	attr, ok := msg.MessageAttributes[name]
	if !ok {
		return ""
	}
	return aws.ToString(attr.StringValue)
}
