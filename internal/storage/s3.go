package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"meal-planner/internal/planner"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive uploads plans to s3://bucket/plans/<start>/<run id>.json.
type S3Archive struct {
	client s3PutObjectAPI
	bucket string
	now    func() time.Time
}

// NewS3Archive builds a client from the default AWS credential chain.
func NewS3Archive(ctx context.Context, bucket string) (*S3Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return newS3Archive(s3.NewFromConfig(cfg), bucket), nil
}

func newS3Archive(client s3PutObjectAPI, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, now: time.Now}
}

func (a *S3Archive) objectKey(doc PlanDocument) string {
	return path.Join("plans", doc.Start, doc.RunID+".json")
}

// Archive uploads res and returns its s3:// location.
func (a *S3Archive) Archive(ctx context.Context, res planner.Result) (string, error) {
	doc := NewPlanDocument(res, a.now())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}

	key := a.objectKey(doc)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload plan to s3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
