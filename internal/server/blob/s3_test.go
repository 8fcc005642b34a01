package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/storefront/internal/common"
	sc "github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *sc.Config {
	return &sc.Config{
		S3AccessKey:    "ak",
		S3SecretKey:    "sk",
		S3Bucket:       "bucket",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://minio:9000",
	}
}

func stubSeams(t *testing.T) {
	t.Helper()
	origLoad, origNew, origPut, origNow := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, now
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject, now = origLoad, origNew, origPut, origNow
	})
}

func TestObjectKey(t *testing.T) {
	ts := time.Date(2024, 2, 9, 10, 0, 0, 0, time.UTC)

	key := ObjectKey("Photo.PNG", ts)
	assert.Regexp(t, `^images/2024/02/09/[0-9a-f-]{36}\.png$`, key)
	assert.NotEqual(t, key, ObjectKey("Photo.PNG", ts))

	assert.Regexp(t, `^images/2024/02/09/[0-9a-f-]{36}$`, ObjectKey("noext", ts))
}

func TestNewS3Uploader_ConfiguresClient(t *testing.T) {
	stubSeams(t)

	var gotOpts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	u, err := NewS3Uploader(context.Background(), testConfig())
	require.NoError(t, err)
	require.NotNil(t, u.client)
	assert.True(t, gotOpts.UsePathStyle)
	require.NotNil(t, gotOpts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *gotOpts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", u.baseURL)
}

func TestNewS3Uploader_ConfigError(t *testing.T) {
	stubSeams(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Uploader(context.Background(), testConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config")
}

func TestUpload_Success(t *testing.T) {
	stubSeams(t)

	now = func() time.Time { return time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC) }

	var got *s3.PutObjectInput
	var body []byte
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		got = in
		body, _ = io.ReadAll(in.Body)
		return &s3.PutObjectOutput{}, nil
	}

	cfg := testConfig()
	cfg.S3PublicBaseURL = "https://cdn.example.com"
	u, err := NewS3Uploader(context.Background(), cfg)
	require.NoError(t, err)

	url, err := u.Upload(context.Background(), "avatar.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "bucket", aws.ToString(got.Bucket))
	assert.Regexp(t, `^images/2024/12/31/.+\.jpg$`, aws.ToString(got.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(got.ContentType))
	assert.Equal(t, int64(len("jpeg-bytes")), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.Equal(t, "https://cdn.example.com/bucket/"+aws.ToString(got.Key), url)
}

func TestUpload_PutError(t *testing.T) {
	stubSeams(t)

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("access denied")
	}

	u, err := NewS3Uploader(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "a.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Contains(t, err.Error(), "access denied")
}

func TestUpload_ReadError(t *testing.T) {
	stubSeams(t)

	called := false
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		called = true
		return &s3.PutObjectOutput{}, nil
	}

	u, err := NewS3Uploader(context.Background(), testConfig())
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), "a.png", iotest.ErrReader(errors.New("broken pipe")))
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.False(t, called)
}
