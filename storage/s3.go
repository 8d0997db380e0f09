package storage

import (
	"bytes"
	"context"
	"fmt"

	aws_pkg "catalog-service/pkg/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures the S3-backed media store.
type S3Config struct {
	Bucket           string
	Prefix           string
	Endpoint         string
	CloudFrontDomain string
}

// S3Store uploads media to a bucket and returns its public URL.
type S3Store struct {
	client aws_pkg.ObjectPutter
	cfg    S3Config
}

func NewS3Store(client aws_pkg.ObjectPutter, cfg S3Config) *S3Store {
	return &S3Store{client: client, cfg: cfg}
}

func (s *S3Store) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if !validFilename(filename) {
		return "", ErrInvalidFilename
	}
	key := s.cfg.Prefix + filename

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return aws_pkg.PublicObjectURL(s.cfg.Bucket, key, s.cfg.Endpoint, s.cfg.CloudFrontDomain), nil
}
