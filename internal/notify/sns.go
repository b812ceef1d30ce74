package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
)

// Publisher sends messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// snsAPI is the part of the SNS client the notifier uses.
type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS publishes JSON messages to an SNS topic.
type SNS struct {
	client  snsAPI
	metrics *metrics.Metrics
	log     *logger.Logger
}

// NewSNS creates an SNS publisher.
func NewSNS(cfg aws.Config, m *metrics.Metrics, log *logger.Logger) *SNS {
	return &SNS{client: sns.NewFromConfig(cfg), metrics: m, log: log}
}

// Publish serializes msg and sends it with its subject.
func (s *SNS) Publish(ctx context.Context, topic string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeNotification, "Error sending SNS notification")
	}

	s.log.Info("Sending SNS notification", "topic", topic, "subject", msg.MessageSubject(), "message", string(body))

	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(topic),
		Message:   aws.String(string(body)),
		Subject:   aws.String(msg.MessageSubject()),
	})
	if err != nil {
		s.metrics.Notifications.WithLabelValues(msg.MessageSubject(), "error").Inc()
		return domainerrors.Wrap(err, domainerrors.CodeNotification, "Error sending SNS notification")
	}

	s.metrics.Notifications.WithLabelValues(msg.MessageSubject(), "sent").Inc()
	return nil
}
