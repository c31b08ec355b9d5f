package recon

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	archiveDefaultBucket = "ourfloworks"
	archivePrefix        = "commission-workbooks/"
	archiveDefaultRegion = "us-east-1"
)

func archiveBucket() string {
	if b := strings.TrimSpace(os.Getenv("ARCHIVE_S3_BUCKET")); b != "" {
		return b
	}
	return archiveDefaultBucket
}

func archiveRegion() string {
	if r := strings.TrimSpace(os.Getenv("ARCHIVE_S3_REGION")); r != "" {
		return r
	}
	return archiveDefaultRegion
}

func archiveBaseURL() string {
	if u := strings.TrimSpace(os.Getenv("ARCHIVE_S3_BASE_URL")); u != "" {
		u = strings.TrimSuffix(u, "/")
		return u + "/"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", archiveBucket(), archiveRegion())
}

// isArchiveEnabled reads env var ARCHIVE_S3_ENABLED to determine whether
// to store original workbooks in S3. Defaults to false when unset.
func isArchiveEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("ARCHIVE_S3_ENABLED")))
	return v == "1" || v == "true" || v == "yes"
}

func buildWorkbookKey(fileHash, fileExt string) string {
	ext := strings.TrimSpace(fileExt)
	if ext == "" {
		ext = ".bin"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return archivePrefix + fileHash + ext
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}

func uploadWorkbookToS3(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	bucket := archiveBucket()
	region := archiveRegion()
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload to s3 (bucket %s, key %s): %w", bucket, key, err)
	}
	return archiveBaseURL() + key, nil
}
