package storage

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	Port      int
	UseSSL    bool
	AccessKey string
	SecretKey string
	PublicURL string
}

type MinioStore struct {
	client    *minio.Client
	publicURL string
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	endpoint := cfg.Endpoint
	if cfg.Port > 0 {
		endpoint = net.JoinHostPort(cfg.Endpoint, strconv.Itoa(cfg.Port))
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStore{client: client, publicURL: cfg.PublicURL}, nil
}

func (s *MinioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return s.client.BucketExists(ctx, bucket)
}

func (s *MinioStore) MakeBucket(ctx context.Context, bucket string) error {
	err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		return nil
	}
	return err
}

func (s *MinioStore) SetBucketPolicy(ctx context.Context, bucket, policy string) error {
	return s.client.SetBucketPolicy(ctx, bucket, policy)
}

func (s *MinioStore) PutObject(ctx context.Context, bucket, name string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s *MinioStore) RemoveObject(ctx context.Context, bucket, name string) error {
	return s.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{})
}

func (s *MinioStore) PublicURL() string {
	return s.publicURL
}
