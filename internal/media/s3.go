package media

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
)

// S3Storage keeps media in a bucket. Credentials come from the usual AWS
// environment and shared config.
type S3Storage struct {
	Bucket   string
	BaseURL  string
	client   s3iface.S3API
	uploader *s3manager.Uploader
}

func NewS3Storage(bucket, region string) (*S3Storage, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %v", err)
	}

	client := s3.New(sess)
	baseURL := fmt.Sprintf("https://%s.s3.amazonaws.com/", bucket)
	if region != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucket, region)
	}
	return newS3Storage(client, bucket, baseURL), nil
}

func newS3Storage(client s3iface.S3API, bucket, baseURL string) *S3Storage {
	return &S3Storage{
		Bucket:   bucket,
		BaseURL:  baseURL,
		client:   client,
		uploader: s3manager.NewUploaderWithClient(client),
	}
}

func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader, contentType string) error {
	key, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	return errors.Wrapf(err, "uploading %s to s3 failed", key)
}

func (s *S3Storage) Delete(ctx context.Context, name string) error {
	key, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "deleting %s from s3 failed", key)
}

func (s *S3Storage) URL(name string) string {
	return s.BaseURL + name
}
