package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadResultStruct(t *testing.T) {
	result := UploadResult{
		Key:    "exports/abc123.zip",
		Bucket: "my-bucket",
		Region: "us-east-1",
		Size:   1024000,
	}

	assert.Equal(t, "exports/abc123.zip", result.Key)
	assert.Equal(t, "my-bucket", result.Bucket)
	assert.Equal(t, "us-east-1", result.Region)
	assert.Equal(t, int64(1024000), result.Size)
}

func TestS3UploaderStruct(t *testing.T) {
	uploader := &S3Uploader{
		bucket: "test-bucket",
		region: "us-west-2",
	}

	assert.Equal(t, "test-bucket", uploader.bucket)
	assert.Equal(t, "us-west-2", uploader.region)
}

func TestMirrorBundleKeyFormat(t *testing.T) {
	exportID := "export-abc123"
	expected := "exports/" + exportID + ".zip"
	assert.Equal(t, "exports/export-abc123.zip", expected)
}
