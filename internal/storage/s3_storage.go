package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/lumberhaus/storefront-backend/config"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

const presignExpiry = 15 * time.Minute

var ErrContentTypeNotAllowed = errors.New("content type is not allowed")

// ImageContentTypes are accepted for product image uploads.
var ImageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type PresignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	FileURL   string    `json:"fileUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Presigner issues upload URLs so browsers can put product images straight
// into the bucket.
type Presigner interface {
	PresignUpload(ctx context.Context, folder, filename, contentType string) (*PresignedUpload, error)
}

type putPresigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Storage struct {
	presigner putPresigner
	bucket    string
	region    string
	baseURL   string
	now       func() time.Time
}

func NewS3Storage(ctx context.Context, cfg config.S3Config) (*S3Storage, error) {
	var awsCfg aws.Config
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region:      cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		}
	} else {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = loaded
	}

	return &S3Storage{
		presigner: s3.NewPresignClient(s3.NewFromConfig(awsCfg)),
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		now:       time.Now,
	}, nil
}

func objectKey(folder, filename, contentType string) string {
	ext := ImageContentTypes[contentType]
	if given := strings.ToLower(filepath.Ext(filename)); given != "" && len(given) <= 5 {
		ext = given
	}
	return fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
}

func (s *S3Storage) PresignUpload(ctx context.Context, folder, filename, contentType string) (*PresignedUpload, error) {
	if _, ok := ImageContentTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
	}

	key := objectKey(folder, filename, contentType)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		logger.Error("Failed to presign upload", err, map[string]interface{}{
			"key": key,
		})
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: s.now().Add(presignExpiry),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
