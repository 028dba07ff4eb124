// Package s3 provides an S3 implementation of the storage lister.
package s3

import (
	"context"
	"fmt"
	"strings"

	s3client "github.com/txn2/mcp-s3/pkg/client"

	"github.com/txn2/timepath/pkg/storage"
)

// maxKeys is the S3 listing page size.
const maxKeys = 1000

// Config holds S3 lister configuration.
type Config struct {
	Region         string
	Endpoint       string
	AccessKeyID    string
	SecretKey      string
	Bucket         string
	ConnectionName string
}

// S3Client defines the interface for S3 operations used by the lister.
// This interface allows for mocking in tests.
type S3Client interface {
	ListObjects(ctx context.Context, bucket, prefix, delimiter string, maxKeys int32, continueToken string) (*s3client.ListObjectsOutput, error)
	Close() error
}

// Lister implements storage.Lister over an S3 bucket. Partition paths map to
// object key prefixes within the configured bucket.
type Lister struct {
	cfg    Config
	client S3Client
}

// New creates a new S3 lister with an existing client.
func New(cfg Config, client S3Client) (*Lister, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	return &Lister{
		cfg:    cfg,
		client: client,
	}, nil
}

// NewFromConfig creates a new S3 lister with a new client from config.
func NewFromConfig(cfg Config) (*Lister, error) {
	clientCfg := &s3client.Config{
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretKey,
		Name:            cfg.ConnectionName,
	}

	client, err := s3client.New(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	return New(cfg, client)
}

// Name returns the backend name.
func (*Lister) Name() string {
	return "s3"
}

// List resolves a partition path within the bucket. A trailing "/*" lists
// every object directly under the partition prefix; any other path names a
// single object key.
func (l *Lister) List(ctx context.Context, path string) ([]storage.Entry, error) {
	key := strings.TrimPrefix(path, "/")

	if strings.HasSuffix(key, "/*") {
		return l.listPrefix(ctx, strings.TrimSuffix(key, "/*")+"/")
	}

	result, err := l.client.ListObjects(ctx, l.cfg.Bucket, key, "", 1, "")
	if err != nil {
		return nil, err
	}
	for _, obj := range result.Objects {
		if obj.Key == key {
			mod := obj.LastModified
			return []storage.Entry{{
				Name:         baseName(obj.Key),
				Size:         obj.Size,
				LastModified: &mod,
			}}, nil
		}
	}
	return []storage.Entry{}, nil
}

// listPrefix pages through every object under the prefix. Listings must be
// exhaustive: a completion marker can sort after thousands of part files, so
// truncating at one page would hide it.
func (l *Lister) listPrefix(ctx context.Context, prefix string) ([]storage.Entry, error) {
	entries := []storage.Entry{}
	token := ""

	for {
		result, err := l.client.ListObjects(ctx, l.cfg.Bucket, prefix, "", maxKeys, token)
		if err != nil {
			return nil, err
		}

		for _, obj := range result.Objects {
			// Skip directory marker objects.
			if strings.HasSuffix(obj.Key, "/") {
				continue
			}
			mod := obj.LastModified
			entries = append(entries, storage.Entry{
				Name:         baseName(obj.Key),
				Size:         obj.Size,
				LastModified: &mod,
			})
		}

		if result.NextContinueToken == "" {
			return entries, nil
		}
		token = result.NextContinueToken
	}
}

// baseName returns the last path segment of an object key.
func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Close releases resources.
func (l *Lister) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// Verify interface compliance.
var _ storage.Lister = (*Lister)(nil)
