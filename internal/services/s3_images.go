package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Options configures the S3-compatible image bucket
type S3Options struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the AWS endpoint for S3-compatible providers
	Endpoint string
	// PublicURL is the base URL objects are served from
	PublicURL string
}

// S3ImageStore uploads data URI images to object storage and stores their URL
type S3ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3ImageStore creates an image store backed by S3
func NewS3ImageStore(ctx context.Context, opts S3Options) (*S3ImageStore, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := opts.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}

	return &S3ImageStore{
		client:    client,
		bucket:    opts.Bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Put uploads data URI images and passes URLs through
func (s *S3ImageStore) Put(ctx context.Context, postID, image string) (string, error) {
	img, err := parseImage(image)
	if err != nil {
		return "", err
	}
	if img == nil {
		return image, nil
	}

	key := objectKey(postID, img.Ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	log.Debug().
		Str("post_id", postID).
		Str("key", key).
		Int("bytes", len(img.Data)).
		Msg("Image uploaded")

	return s.publicURL + "/" + key, nil
}

// objectKey builds the S3 key: posts/{post_id}.{ext}
func objectKey(postID, ext string) string {
	return fmt.Sprintf("posts/%s.%s", postID, ext)
}
