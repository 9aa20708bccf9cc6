package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/onepage-api/internal/config"
	"github.com/onepage-api/internal/domain"
)

// Store publishes site assets to S3.
type Store struct {
	client *s3.Client
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, cfg *config.Config) *s3.Client {
	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, clientOpts...)
}

// NewStore creates a Store with the given S3 client and bucket name.
func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// SwapConfigKey is the object key a domain's swap config is published under.
func SwapConfigKey(domainName string) string {
	return fmt.Sprintf("sites/%s/swap-config.json", domainName)
}

// PublishSwapConfig writes d's swap config and template as JSON and returns
// the object URL.
func (s *Store) PublishSwapConfig(ctx context.Context, d *domain.DomainConfig) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"domain":     d.Domain,
		"template":   d.Template,
		"swapConfig": d.SwapConfig,
	})
	if err != nil {
		return "", fmt.Errorf("encode swap config: %w", err)
	}
	key := SwapConfigKey(d.Domain)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("no-cache"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
