package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/utils"
)

// StorageService reads and writes book file objects by key. Backed by MinIO
// (or any S3-compatible endpoint) in deployments, by the local filesystem in
// development.
type StorageService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func NewStorageService(log *logger.Logger) (StorageService, error) {
	provider := strings.ToLower(utils.GetEnv("STORAGE_PROVIDER", "local", log))
	switch provider {
	case "minio", "s3":
		return newMinioStorage(log)
	case "local":
		return newLocalStorage(log)
	default:
		return nil, fmt.Errorf("unknown STORAGE_PROVIDER %q", provider)
	}
}

type minioStorage struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

func newMinioStorage(log *logger.Logger) (StorageService, error) {
	serviceLog := log.With("service", "StorageService", "provider", "minio")
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("missing env var MINIO_ENDPOINT")
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	bucket := utils.GetEnv("MINIO_BUCKET", "luminalib-books", log)
	useSSL := strings.EqualFold(utils.GetEnv("MINIO_USE_SSL", "false", log), "true")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &minioStorage{log: serviceLog, client: client, bucket: bucket}, nil
}

func (s *minioStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %q: %w", key, err)
	}
	return data, nil
}

func (s *minioStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *minioStorage) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}
	return true, nil
}

type localStorage struct {
	log *logger.Logger
	dir string
}

func newLocalStorage(log *logger.Logger) (StorageService, error) {
	dir := utils.GetEnv("STORAGE_LOCAL_DIR", "./data/books", log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	return &localStorage{log: log.With("service", "StorageService", "provider", "local"), dir: dir}, nil
}

func (s *localStorage) path(key string) string {
	// Keys are object names, never paths; flatten to be safe.
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *localStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", key, err)
	}
	return data, nil
}

func (s *localStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write file %q: %w", key, err)
	}
	return nil
}

func (s *localStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
