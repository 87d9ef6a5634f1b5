// Package cloudflare provides a client for Cloudflare R2 through its S3 compatible API
package cloudflare

import (
	"context"
	"fmt"

	a "storagify/file-api/aws"
	"storagify/file-api/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Client struct {
	C      *s3.Client
	Bucket *string
}

func NewR2(ctx context.Context, cfg config.Cloudflare) (*R2Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load r2 config, %w", err)
	}

	bucket := aws.String(cfg.Bucket)

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.Region = "auto"
	})

	if err := a.CheckBucket(ctx, client, bucket); err != nil {
		return nil, err
	}

	return &R2Client{
		C:      client,
		Bucket: bucket,
	}, nil
}
