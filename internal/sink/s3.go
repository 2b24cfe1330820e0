package sink

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Options configures the S3 client. Endpoint and ForcePathStyle allow
// pointing at S3-compatible stores such as MinIO.
type S3Options struct {
	Region         string
	Endpoint       string
	ForcePathStyle bool
	Logger         *log.Logger
}

// S3 uploads objects under a bucket prefix.
type S3 struct {
	client   *s3.S3
	uploader *s3manager.Uploader
	loc      Location
	logger   *log.Logger
}

// NewS3 creates an AWS session for the given location.
func NewS3(loc Location, opts S3Options) (*S3, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	logger.Printf("sink: s3 bucket=%s prefix=%s region=%s", loc.Bucket, loc.Prefix, region)
	return &S3{
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		loc:      loc,
		logger:   logger,
	}, nil
}

// Put uploads body and verifies the object exists afterwards.
func (s *S3) Put(ctx context.Context, name string, body io.Reader, opts PutOptions) (string, error) {
	key := s.loc.Key(name)

	input := &s3manager.UploadInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = aws.StringMap(opts.Metadata)
	}

	result, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", s.loc.Bucket, key, err)
	}
	s.logger.Printf("sink: uploaded %s", result.Location)

	_, err = s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("verify s3://%s/%s: %w", s.loc.Bucket, key, err)
	}

	return fmt.Sprintf("s3://%s/%s", s.loc.Bucket, key), nil
}
