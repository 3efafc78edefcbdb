package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archive keeps a copy of every exported file.
type Archive interface {
	// Put stores data and returns its key.
	Put(ctx context.Context, userID, fileName string, data []byte) (string, error)
	// DownloadURL returns a temporary link to the object stored under key.
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ArchiveKey returns a fresh storage key for a user's export made at t.
func ArchiveKey(userID string, t time.Time) string {
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("exports/%s/%s/%s.pdf", userID, t.UTC().Format(time.DateOnly), uuid.New())
}

// S3Config holds the object storage settings.
type S3Config struct {
	Region    string
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

// objectPutter is the part of *s3.Client the archive uses
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores exports in an S3 compatible bucket.
type S3Archive struct {
	client  objectPutter
	presign *s3.PresignClient
	bucket  string
	now     func() time.Time
}

// NewS3Archive builds an S3 client from cfg. Static credentials are used when set,
// otherwise the default AWS credential chain applies.
func NewS3Archive(ctx context.Context, cfg S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		now:     time.Now,
	}, nil
}

// Put uploads data under a new ArchiveKey.
func (a *S3Archive) Put(ctx context.Context, userID, fileName string, data []byte) (string, error) {
	key := ArchiveKey(userID, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(a.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String("application/pdf"),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", fileName)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// DownloadURL returns a presigned GET URL for key, valid for ttl.
func (a *S3Archive) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if a.presign == nil {
		return "", fmt.Errorf("presigning is not configured")
	}
	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
