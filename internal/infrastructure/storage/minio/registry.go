package minio

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

const (
	contentTypeParquet = "application/vnd.apache.parquet"
	contentTypeJSON    = "application/json"
)

// DatasetRegistry publishes dataset artifacts under a per-dataset prefix:
// <dataset>/<version>/data.parquet and <dataset>/<version>/vocab.json.
type DatasetRegistry interface {
	PublishParquet(ctx context.Context, dataset, version, filePath string) (*PublishResult, error)
	PublishVocabulary(ctx context.Context, dataset, version string, payload []byte) (*PublishResult, error)
	Exists(ctx context.Context, dataset, version, name string) (bool, error)
	ListVersions(ctx context.Context, dataset string) ([]string, error)
}

// PublishResult describes one uploaded artifact.
type PublishResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type datasetRegistry struct {
	client *Client
	logger logging.Logger
}

// NewDatasetRegistry builds the registry repository on a connected client.
func NewDatasetRegistry(client *Client, logger logging.Logger) DatasetRegistry {
	return &datasetRegistry{client: client, logger: logger.Named("registry")}
}

func objectKey(dataset, version, name string) string {
	return path.Join(dataset, version, name)
}

func (r *datasetRegistry) PublishParquet(ctx context.Context, dataset, version, filePath string) (*PublishResult, error) {
	key := objectKey(dataset, version, "data.parquet")
	info, err := r.client.api.FPutObject(ctx, r.client.bucket, key, filePath, minio.PutObjectOptions{
		ContentType: contentTypeParquet,
		UserMetadata: map[string]string{
			"dataset": dataset,
			"version": version,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRegistryUpload, "upload parquet").
			WithDetail("key=" + key)
	}
	r.logger.Info("published dataset table",
		logging.String("key", key),
		logging.Int64("bytes", info.Size))
	return publishResult(info), nil
}

func (r *datasetRegistry) PublishVocabulary(ctx context.Context, dataset, version string, payload []byte) (*PublishResult, error) {
	key := objectKey(dataset, version, "vocab.json")
	info, err := r.client.api.PutObject(ctx, r.client.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: contentTypeJSON})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRegistryUpload, "upload vocabulary").
			WithDetail("key=" + key)
	}
	r.logger.Info("published vocabulary",
		logging.String("key", key),
		logging.Int64("bytes", info.Size))
	return publishResult(info), nil
}

func (r *datasetRegistry) Exists(ctx context.Context, dataset, version, name string) (bool, error) {
	key := objectKey(dataset, version, name)
	_, err := r.client.api.StatObject(ctx, r.client.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat registry object").
			WithDetail("key=" + key)
	}
	return true, nil
}

func (r *datasetRegistry) ListVersions(ctx context.Context, dataset string) ([]string, error) {
	prefix := dataset + "/"
	objects := r.client.api.ListObjects(ctx, r.client.bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	})

	var versions []string
	for obj := range objects {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list registry versions")
		}
		// Non-recursive listing yields version prefixes "<dataset>/<version>/".
		v := path.Base(path.Clean(obj.Key))
		if v != "" && v != "." {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

func publishResult(info minio.UploadInfo) *PublishResult {
	return &PublishResult{
		Bucket:     info.Bucket,
		ObjectKey:  info.Key,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: time.Now().UTC(),
	}
}
