package gl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"lotto-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// Sink receives committed posting batches for the downstream General
// Ledger. Emit runs after the posting transaction commits; a sink
// failure never rolls the posting back.
type Sink interface {
	Emit(ctx context.Context, p *models.Posting) error
}

// LogSink writes each batch to the structured log. It is the default
// when no archive bucket is configured.
type LogSink struct {
	Logger *logrus.Logger
}

func (s *LogSink) Emit(_ context.Context, p *models.Posting) error {
	s.Logger.WithFields(logrus.Fields{
		"batch_id": p.BatchID,
		"store":    p.StoreID,
		"date":     p.BusinessDate,
		"revision": p.Revision,
		"entries":  len(p.Entries),
		"total":    p.TotalCommission.String(),
	}).Info("gl batch emitted")
	return nil
}

// S3Sink archives each batch as a JSON object in an S3-compatible
// bucket (R2 works with a custom endpoint). Revisions overwrite the
// same key, matching the supersede-in-place posting semantics.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink builds a sink against an S3-compatible endpoint using
// static credentials. endpoint may be empty for real AWS.
func NewS3Sink(ctx context.Context, endpoint, region, accessKey, secretKey, bucket string) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure archive client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return &S3Sink{client: client, bucket: bucket}, nil
}

func (s *S3Sink) Emit(ctx context.Context, p *models.Posting) error {
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch %s: %w", p.BatchID, err)
	}

	key := fmt.Sprintf("postings/%d/%s.json", p.StoreID, p.BusinessDate)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to archive batch %s: %w", p.BatchID, err)
	}
	return nil
}
