package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/pilotkeeper/internal/common"
)

// S3Config holds the connection settings of an S3-compatible bucket
// (MinIO in development).
type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// s3API is the subset of *s3.Client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}

	nowFunc = time.Now
)

// S3Store keeps artifacts as objects; the locator is the object key.
type S3Store struct {
	client s3API
	bucket string
}

func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: c.Bucket}, nil
}

// objectKey returns "fingerprints/YYYY/M/D/<uuid>.<ext>".
func objectKey(originalName string) string {
	d := nowFunc()
	return fmt.Sprintf("fingerprints/%d/%d/%d/%s", d.Year(), d.Month(), d.Day(), newName(originalName))
}

func (s *S3Store) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	// Buffered so the SDK gets a seekable body over plain-HTTP endpoints.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: read upload: %w", common.ErrorIO, err)
	}

	key := objectKey(originalName)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		IfNoneMatch: aws.String("*"),
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(originalName))); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("%w: put %s: %w", common.ErrorIO, key, err)
	}

	return key, nil
}

func (s *S3Store) Load(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, fmt.Errorf("empty locator: %w", common.ErrorNotFound)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("artifact %s: %w", locator, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: get %s: %w", common.ErrorIO, locator, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrorIO, locator, err)
	}

	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, locator string) error {
	if locator == "" {
		return fmt.Errorf("empty locator: %w", common.ErrorNotFound)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("artifact %s: %w", locator, common.ErrorNotFound)
		}
		return fmt.Errorf("%w: delete %s: %w", common.ErrorIO, locator, err)
	}

	return nil
}

func isS3NotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
