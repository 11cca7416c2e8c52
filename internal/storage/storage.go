// Package storage provides evidence file storage backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kdelacruz/bantay"
)

// NewFileStorage creates a file storage instance based on the provider configuration.
func NewFileStorage(ctx context.Context, logger *slog.Logger, cfg bantay.StorageConfig) (bantay.FileStorage, error) {
	switch cfg.Provider {
	case "s3":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		s3Client := s3.NewFromConfig(awsCfg)

		logger.Info("initialized S3 storage",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)

		return NewS3Storage(s3Client, cfg.S3Bucket, cfg.S3Region, cfg.S3BaseURL), nil

	default: // "local"
		store, err := NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create local storage: %w", err)
		}

		logger.Info("initialized local storage",
			slog.String("path", cfg.LocalPath),
			slog.String("url", cfg.LocalURL),
		)

		return store, nil
	}
}

// Compile-time interface check
var _ bantay.FileStorage = (*LocalStorage)(nil)

// LocalStorage implements bantay.FileStorage on local disk.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new local storage instance.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// Upload writes the file under key and returns its URL. Keys may contain
// slashes; intermediate directories are created as needed.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	destPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, reader); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return s.GetURL(key), nil
}

// Delete removes a file from local disk. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	destPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(destPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetURL returns the URL to access the file.
func (s *LocalStorage) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

// Exists checks if a file exists on disk.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	destPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(destPath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// resolve maps a key to an on-disk path, rejecting traversal outside the base.
func (s *LocalStorage) resolve(key string) (string, error) {
	destPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(destPath, filepath.Clean(s.basePath)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return destPath, nil
}
