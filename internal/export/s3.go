package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"catgraph/internal/config"
)

var _ Uploader = (*S3Uploader)(nil)

// S3Uploader writes artifacts to S3-compatible object storage with static
// credentials. A custom endpoint switches to path-style addressing.
type S3Uploader struct {
	client *s3.Client
}

// NewS3Uploader creates an uploader from the CATGRAPH_S3_* settings.
func NewS3Uploader(cfg *config.Config) (*S3Uploader, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete: set CATGRAPH_S3_KEY_ID, CATGRAPH_S3_SECRET and CATGRAPH_S3_REGION")
	}
	opts := s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
	}
	if cfg.S3Endpoint != nil {
		endpoint := *cfg.S3Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return &S3Uploader{client: s3.New(opts)}, nil
}

// Put uploads data as bucket/key.
func (u *S3Uploader) Put(ctx context.Context, bucket, key string, data []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("put object %q/%q: %w", bucket, key, err)
	}
	return nil
}
