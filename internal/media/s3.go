package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

// S3API is the part of *s3.Client the store needs
type S3API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps objects in an S3 compatible bucket (AWS or Cloudflare R2)
type S3Store struct {
	client    S3API
	bucket    *string
	publicURL string
}

// NewS3Store creates a store for bucket. Object URLs are built from
// publicURL, an empty publicURL falls back to the virtual hosted AWS URL
// for region.
func NewS3Store(client S3API, bucket *string, region, publicURL string) *S3Store {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", aws.ToString(bucket), region)
	}

	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *S3Store) Upload(ctx context.Context, path string, opts UploadOptions) (*Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file, %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file, %w", err)
	}

	format, ext, err := describe(path, opts.Filename)
	if err != nil {
		return nil, err
	}

	key, err := newKey(opts.Namespace, ext)
	if err != nil {
		return nil, err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
		Metadata: map[string]string{
			"tags":     strings.Join(opts.Tags, ","),
			"filename": url.QueryEscape(opts.Filename),
		},
	}

	if stat.Size() > minMultipartSize {
		uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})

		_, err = uploader.Upload(ctx, input)
	} else {
		_, err = s.client.PutObject(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upload object, %w", err)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		s.cleanup(key)
		return nil, fmt.Errorf("failed to read uploaded object, %w", err)
	}

	return &Object{
		URL:        s.publicURL + "/" + key,
		ExternalID: key,
		Format:     format,
		Bytes:      aws.ToInt64(head.ContentLength),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, externalID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(externalID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

// cleanup removes an object that was uploaded but can't be reported back
func (s *S3Store) cleanup(key string) {
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: s.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		zap.L().Error("Failed to cleanup after failed upload", zap.String("key", key), zap.Error(err))
	} else {
		zap.L().Debug("Cleaned up after failed upload", zap.String("key", key))
	}
}
