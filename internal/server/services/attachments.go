package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/server/config"
	"github.com/google/uuid"
)

// Presigner is the part of *s3.PresignClient the attachment service uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Presigner builds a presign client for an S3-compatible endpoint
// (MinIO in development) using static credentials.
func NewS3Presigner(ctx context.Context, cfg *config.Config) (*s3.PresignClient, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return s3.NewPresignClient(client), nil
}

func storagePrefix(uid string) string {
	return "shares/" + uid + "/"
}

// AttachmentService hands out short-lived URLs for encrypted share payloads.
type AttachmentService struct {
	presigner Presigner
	documents *DocumentService
	bucket    string
	expiry    time.Duration
	now       func() time.Time
}

func NewAttachmentService(p Presigner, documents *DocumentService, cfg *config.Config) *AttachmentService {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &AttachmentService{
		presigner: p,
		documents: documents,
		bucket:    cfg.S3Bucket,
		expiry:    expiry,
		now:       time.Now,
	}
}

func (s *AttachmentService) storageKey(uid string) string {
	d := s.now().UTC()
	return fmt.Sprintf("%s%04d/%02d/%s", storagePrefix(uid), d.Year(), d.Month(), uuid.New())
}

// PresignUpload returns a fresh object key under the caller's prefix and a
// PUT URL for it.
func (s *AttachmentService) PresignUpload(ctx context.Context, uid string) (string, string, error) {
	key := s.storageKey(uid)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", "", fmt.Errorf("presign put: %w", err)
	}
	return key, req.URL, nil
}

// PresignDownload returns a GET URL for the attachment of a file share the
// caller is a party to.
func (s *AttachmentService) PresignDownload(ctx context.Context, uid, shareID string) (string, error) {
	doc, err := s.documents.Get(ctx, uid, common.CollectionShares, shareID)
	if err != nil {
		return "", err
	}

	key := attachmentKey(doc)
	if key == "" {
		return "", fmt.Errorf("%w: share has no attachment", common.ErrorNotFound)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
