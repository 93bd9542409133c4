// Package storage issues presigned S3 URLs so clients upload audio directly
// to the media bucket before requesting a transcription.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

// MediaStore wraps the S3 presign client for the audio bucket.
type MediaStore struct {
	presign *s3.PresignClient
	bucket  string
}

// NewMediaStore loads the default AWS config for the region and returns a
// store bound to the given bucket.
func NewMediaStore(ctx context.Context, region, bucket string) (*MediaStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &MediaStore{presign: s3.NewPresignClient(client), bucket: bucket}, nil
}

// NewUploadKey returns a fresh object key for an audio upload, grouped by
// date so the bucket stays browsable.
func NewUploadKey(extension string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("audio/%d/%02d/%02d/%s.%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), extension)
}

// PresignUpload returns the object key and a presigned PUT URL valid for
// presignTTL.
func (m *MediaStore) PresignUpload(ctx context.Context, key string) (string, error) {
	req, err := m.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Bucket exposes the bucket name for building s3:// media URIs.
func (m *MediaStore) Bucket() string { return m.bucket }
