// Package minio guarda las imágenes subidas en un bucket S3 compatible.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/platform/logger"
	"apa-backoffice/internal/ports/media"

	minioSDK "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL: prefijo de las URLs devueltas (CDN). Vacío = endpoint/bucket.
	PublicBaseURL string
}

type Store struct {
	client *minioSDK.Client
	bucket string
	public string
}

// Open conecta y crea el bucket si no existe.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint/bucket missing: %w", errs.ErrConfiguration)
	}
	client, err := minioSDK.New(cfg.Endpoint, &minioSDK.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w: %v", errs.ErrTransient, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minioSDK.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.Info("bucket created", map[string]any{"bucket": cfg.Bucket})
	}

	public := strings.TrimRight(cfg.PublicBaseURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &Store{client: client, bucket: cfg.Bucket, public: public}, nil
}

func (s *Store) Put(ctx context.Context, obj media.Object) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, obj.Size, minioSDK.PutObjectOptions{
		ContentType:  obj.ContentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w: %v", obj.Key, errs.ErrTransient, err)
	}
	return s.URL(obj.Key), nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minioSDK.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w: %v", key, errs.ErrTransient, err)
	}
	return nil
}

func (s *Store) URL(key string) string {
	return s.public + "/" + (&url.URL{Path: key}).EscapedPath()
}
