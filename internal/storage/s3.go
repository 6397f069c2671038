package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zfogg/sidechain/backend/internal/telemetry"
)

// S3Uploader mirrors export bundles to an S3-compatible bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
	region string
}

// UploadResult reports where a mirrored bundle landed.
type UploadResult struct {
	Key    string `json:"key"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// NewS3Uploader builds an S3Uploader for bucket in region, using the
// default AWS credential chain.
func NewS3Uploader(region, bucket string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
	}, nil
}

// MirrorBundle uploads the zip at localZipPath under
// "exports/<exportID>.zip".
func (u *S3Uploader) MirrorBundle(ctx context.Context, exportID, localZipPath string) (*UploadResult, error) {
	f, err := os.Open(localZipPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localZipPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localZipPath, err)
	}

	key := fmt.Sprintf("exports/%s.zip", exportID)
	ctx, span := telemetry.TraceS3Call(ctx, "put_object", map[string]interface{}{
		"bucket":     u.bucket,
		"key":        key,
		"size_bytes": info.Size(),
	})
	defer span.End()

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		telemetry.RecordServiceError(span, "s3", err)
		return nil, fmt.Errorf("upload to S3: %w", err)
	}
	telemetry.RecordServiceSuccess(span, nil)

	return &UploadResult{Key: key, Bucket: u.bucket, Region: u.region, Size: info.Size()}, nil
}

// DeleteBundle removes a previously mirrored bundle.
func (u *S3Uploader) DeleteBundle(ctx context.Context, exportID string) error {
	key := fmt.Sprintf("exports/%s.zip", exportID)
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies the configured bucket is reachable.
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}
