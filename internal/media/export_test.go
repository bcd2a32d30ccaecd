package media

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/require"
)

// NewTestS3Storage points an S3Storage at a fake endpoint.
func NewTestS3Storage(t *testing.T, endpoint, bucket string) *S3Storage {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"),
		S3ForcePathStyle: aws.Bool(true),
		Credentials:      credentials.NewStaticCredentials("id", "secret", ""),
	})
	require.NoError(t, err)
	return newS3Storage(s3.New(sess), bucket, "https://"+bucket+".s3.amazonaws.com/")
}
