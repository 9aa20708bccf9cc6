package sns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
)

// EventDomainRegistered is the event_type attribute of domain registrations.
const EventDomainRegistered = "domain.registered"

// Publisher sends domain events to an SNS topic.
type Publisher struct {
	client   *sns.Client
	topicARN string
}

type domainRegistered struct {
	Type       string    `json:"type"`
	Domain     string    `json:"domain"`
	DomainID   string    `json:"id"`
	Username   string    `json:"username"`
	Template   string    `json:"template"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewClient creates an SNS client, honouring the LocalStack endpoint override.
func NewClient(awsCfg aws.Config, cfg *config.Config) *sns.Client {
	clientOpts := []func(*sns.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...)
}

func NewPublisher(client *sns.Client, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

// PublishDomainRegistered announces a newly registered domain.
func (p *Publisher) PublishDomainRegistered(ctx context.Context, d *domain.DomainConfig) error {
	msg, err := json.Marshal(domainRegistered{
		Type:       EventDomainRegistered,
		Domain:     d.Domain,
		DomainID:   d.DomainID,
		Username:   d.Username,
		Template:   d.Template,
		OccurredAt: d.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(msg)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(EventDomainRegistered)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
