package images

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"fridge-chef/internal/domain"
)

// S3Resolver returns presigned GET URLs for recipe images stored as
// "<Image_Name>.jpg" objects in a bucket.
type S3Resolver struct {
	client *s3.Client
	bucket string
	expiry time.Duration
}

func NewS3Resolver(ctx context.Context, bucket, region string, expiryMinutes int) (*S3Resolver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &S3Resolver{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		expiry: time.Duration(expiryMinutes) * time.Minute,
	}, nil
}

func (r *S3Resolver) Resolve(ctx context.Context, imageName string) (string, error) {
	if imageName == "" {
		return "", errors.New("empty image name")
	}

	presignClient := s3.NewPresignClient(r.client)
	presigned, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(imageName + ".jpg"),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign image url: %w", err)
	}
	return presigned.URL, nil
}

var _ domain.ImageResolver = (*S3Resolver)(nil)
