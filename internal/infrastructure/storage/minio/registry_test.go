package minio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemforge/molpipe/internal/infrastructure/logging"
)

type fakeAPI struct {
	objects map[string][]byte
	buckets map[string]bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		objects: make(map[string][]byte),
		buckets: map[string]bool{"datasets": true},
	}
}

func (f *fakeAPI) BucketExists(_ context.Context, name string) (bool, error) {
	return f.buckets[name], nil
}

func (f *fakeAPI) MakeBucket(_ context.Context, name string, _ miniogo.MakeBucketOptions) error {
	f.buckets[name] = true
	return nil
}

func (f *fakeAPI) FPutObject(_ context.Context, bucket, key, filePath string, _ miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	return miniogo.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, bucket, key string, reader io.Reader, size int64, _ miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.objects[bucket+"/"+key] = data
	return miniogo.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (f *fakeAPI) StatObject(_ context.Context, bucket, key string, _ miniogo.StatObjectOptions) (miniogo.ObjectInfo, error) {
	if _, ok := f.objects[bucket+"/"+key]; !ok {
		return miniogo.ObjectInfo{}, miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return miniogo.ObjectInfo{Key: key}, nil
}

func (f *fakeAPI) ListObjects(_ context.Context, bucket string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo {
	ch := make(chan miniogo.ObjectInfo)
	go func() {
		defer close(ch)
		prefix := bucket + "/" + opts.Prefix
		for full := range f.objects {
			if len(full) >= len(prefix) && full[:len(prefix)] == prefix {
				ch <- miniogo.ObjectInfo{Key: full[len(bucket)+1:]}
			}
		}
	}()
	return ch
}

func TestDatasetRegistryPublish(t *testing.T) {
	api := newFakeAPI()
	client := NewClientWithAPI(api, "datasets", logging.NewNopLogger())
	registry := NewDatasetRegistry(client, logging.NewNopLogger())
	ctx := context.Background()

	parquet := filepath.Join(t.TempDir(), "data.parquet")
	require.NoError(t, os.WriteFile(parquet, []byte("PAR1...PAR1"), 0o644))

	res, err := registry.PublishParquet(ctx, "qm9", "v1", parquet)
	require.NoError(t, err)
	assert.Equal(t, "qm9/v1/data.parquet", res.ObjectKey)
	assert.EqualValues(t, 11, res.Size)

	_, err = registry.PublishVocabulary(ctx, "qm9", "v1", []byte(`{"C": 0}`))
	require.NoError(t, err)

	ok, err := registry.Exists(ctx, "qm9", "v1", "vocab.json")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = registry.Exists(ctx, "qm9", "v2", "vocab.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatasetRegistryPublishMissingFile(t *testing.T) {
	client := NewClientWithAPI(newFakeAPI(), "datasets", logging.NewNopLogger())
	registry := NewDatasetRegistry(client, logging.NewNopLogger())

	_, err := registry.PublishParquet(context.Background(), "qm9", "v1",
		filepath.Join(t.TempDir(), "absent.parquet"))
	require.Error(t, err)
}
