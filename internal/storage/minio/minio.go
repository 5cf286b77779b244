// Package miniostore implements the purge storage capability for MinIO and
// other S3-compatible endpoints via minio-go.
package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dev-tams/deltapurge/internal/storage/prunable"
)

type Storage struct {
	name   string
	bucket string
	client *minio.Client
}

type Options struct {
	Name      string
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func New(opt Options) (*Storage, error) {
	if opt.Bucket == "" {
		return nil, fmt.Errorf("minio: bucket is required")
	}
	if opt.Endpoint == "" {
		return nil, fmt.Errorf("minio: endpoint is required")
	}

	endpoint := opt.Endpoint
	secure := opt.UseSSL
	if u, err := url.Parse(opt.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	var creds *credentials.Credentials
	if opt.AccessKey != "" {
		creds = credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: opt.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	return &Storage{name: opt.Name, bucket: opt.Bucket, client: client}, nil
}

func (s *Storage) Name() string { return s.name }

func (s *Storage) List(ctx context.Context, prefix string) ([]prunable.ObjectInfo, error) {
	var out []prunable.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classify("listobjects", obj.Err)
		}
		out = append(out, prunable.ObjectInfo{
			Key:     obj.Key,
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return out, nil
}

func (s *Storage) ReadObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify("getobject", err)
	}
	defer obj.Close()

	// GetObject is lazy; a missing key surfaces on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", key, prunable.ErrNotFound)
		}
		return nil, classify("getobject", err)
	}
	return data, nil
}

// DeleteObjects sends keys through a single RemoveObjects call. minio-go
// turns the stream into multi-object delete requests of up to 1000 keys, so a
// chunk within that limit is one request.
func (s *Storage) DeleteObjects(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err == nil {
			continue
		}
		if minio.ToErrorResponse(rerr.Err).Code == "NoSuchKey" {
			continue
		}
		errs = append(errs, fmt.Errorf("%s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("minio removeobjects: %d key(s) rejected: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func classify(op string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code != "" {
		return fmt.Errorf("minio %s failed: %s: %s: %w", op, resp.Code, resp.Message, err)
	}
	return fmt.Errorf("minio %s failed: %w", op, err)
}
