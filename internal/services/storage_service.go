// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/carverse/partsearch-backend/internal/config"
	"github.com/carverse/partsearch-backend/internal/utils"
)

// maxImageBytes bounds listing image downloads.
const maxImageBytes = 10 * 1024 * 1024

// StorageService mirrors external listing images into S3 so results keep
// rendering after marketplace URLs rot. Without AWS credentials it degrades
// to a pass-through that leaves the original URL in place.
type StorageService struct {
	s3Client *s3.S3
	client   *http.Client
	config   *config.Config
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	httpClient := &http.Client{Timeout: 20 * time.Second}

	if config.AWS.AccessKeyID == "" {
		// Pass-through mode for local development
		return &StorageService{client: httpClient, config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		client:   httpClient,
		config:   config,
	}, nil
}

func (s *StorageService) Enabled() bool {
	return s.config.AWS.MirrorImages && s.s3Client != nil
}

// MirrorImage downloads imageURL and re-hosts it under the part's source
// identity. Any failure keeps the original URL so results never break on a
// mirror problem.
func (s *StorageService) MirrorImage(ctx context.Context, source, sourceID, imageURL string) string {
	if imageURL == "" || !s.Enabled() {
		return imageURL
	}

	body, contentType, err := s.download(ctx, imageURL)
	if err != nil {
		logrus.WithError(err).WithField("url", imageURL).Warn("Image download failed, keeping source URL")
		return imageURL
	}

	if !isSupportedImage(body) {
		logrus.WithField("url", imageURL).Warn("Unsupported image signature, keeping source URL")
		return imageURL
	}

	key := s.imageKey(source, sourceID, imageURL)

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Image upload failed, keeping source URL")
		return imageURL
	}

	return s.getS3URL(key)
}

func (s *StorageService) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create image request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image host returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(body) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return body, contentType, nil
}

func (s *StorageService) imageKey(source, sourceID, imageURL string) string {
	ext := ".jpg"
	if parsed, err := url.Parse(imageURL); err == nil {
		switch e := strings.ToLower(filepath.Ext(parsed.Path)); e {
		case ".jpg", ".jpeg", ".png", ".gif":
			ext = e
		}
	}

	return fmt.Sprintf("part-images/%s/%s_%s%s", source, sourceID, utils.ShortHash(imageURL)[:8], ext)
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

func isSupportedImage(data []byte) bool {
	// JPEG
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return true
	}

	// PNG
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return true
	}

	// GIF
	if len(data) >= 6 && (string(data[0:6]) == "GIF87a" || string(data[0:6]) == "GIF89a") {
		return true
	}

	return false
}
