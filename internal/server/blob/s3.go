// Package blob stores uploaded images in S3-compatible object storage and
// hands back the URL they are served from.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/storefront/internal/common"
	sc "github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/google/uuid"
)

// Uploader stores a named payload and returns its public URL. Any failure is
// reported as common.ErrUploadFailed.
type Uploader interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	now = time.Now
)

// S3Uploader writes objects with PutObject into a single bucket.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Uploader builds an S3 client from static credentials and the
// configured endpoint. Path-style addressing is used so MinIO works.
func NewS3Uploader(ctx context.Context, cfg *sc.Config) (*S3Uploader, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Uploader{
		client:  client,
		bucket:  cfg.S3Bucket,
		baseURL: cfg.PublicBaseURL(),
	}, nil
}

// ObjectKey returns a fresh key for filename: images/YYYY/MM/DD/<uuid><ext>.
func ObjectKey(filename string, t time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("images/%04d/%02d/%02d/%s%s", t.Year(), t.Month(), t.Day(), uuid.NewString(), ext)
}

func (u *S3Uploader) Upload(ctx context.Context, filename string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", common.ErrUploadFailed, err)
	}

	key := ObjectKey(filename, now())
	in := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := putObject(u.client, ctx, in); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	return u.baseURL + "/" + u.bucket + "/" + key, nil
}
