// Package storage 检验照片存储（本地磁盘 / MinIO）
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStore persists photo payloads under an object key.
type PhotoStore interface {
	// Put stores the payload and returns the URL clients load it from.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object; a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// Config 存储配置
type Config struct {
	Provider  string // local / minio
	LocalPath string
	LocalURL  string

	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// New 根据配置创建照片存储
func New(ctx context.Context, cfg Config) (PhotoStore, error) {
	switch cfg.Provider {
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		store, err := NewMinioStore(ctx, client, cfg.Bucket, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store, err := NewLocalStore(cfg.LocalPath, cfg.LocalURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// LocalStore 本地磁盘存储
type LocalStore struct {
	basePath string
	baseURL  string
}

func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// file maps a key to a path under basePath; ".." segments cannot climb out.
func (s *LocalStore) file(key string) (string, string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" {
		return "", "", fmt.Errorf("invalid object key %q", key)
	}
	return clean, filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	clean, dst, err := s.file(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.baseURL + "/" + clean, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	_, dst, err := s.file(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// MinioStore MinIO对象存储
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore creates the bucket when it does not exist yet.
func NewMinioStore(ctx context.Context, client *minio.Client, bucket, publicURL string) (*MinioStore, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	if publicURL == "" {
		publicURL = client.EndpointURL().String() + "/" + bucket
	}
	return &MinioStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
