package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blogfolio/backend/errs"
)

// MediaStore uploads images to the hosted bucket and hands back public URLs.
// The rest of the system only ever stores the URL string.
type MediaStore struct {
	client *s3.Client
	bucket string
	region string
	logger zerolog.Logger
}

func NewMediaStore(ctx context.Context, bucket, region string, logger zerolog.Logger) (*MediaStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return &MediaStore{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		logger: logger.With().Str("service", "media").Logger(),
	}, nil
}

// UploadImage stores the file under a fresh key and returns its public URL.
func (m *MediaStore) UploadImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("uploads/%s%s", uuid.New(), strings.ToLower(filepath.Ext(filename)))

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		m.logger.Error().Err(err).Str("key", key).Msg("image upload failed")
		return "", errs.NewPersistenceError("upload", "image", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key), nil
}
