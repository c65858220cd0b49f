package store

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"github.com/wswaq/img2dataset/cmn/cos"
)

type gcsStore struct{}

func init() {
	Register("gs", func() (Store, error) { return gcsStore{}, nil })
}

func splitBucketKey(path string) (bucket, key string) {
	path = StripScheme(path)
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return path, ""
	}
	return path[:i], path[i+1:]
}

func (gcsStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key := splitBucketKey(path)
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "store: gcs client")
	}
	rc, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		client.Close()
		if err == storage.ErrObjectNotExist {
			return nil, cos.NewErrNotFound("gcs object %s/%s", bucket, key)
		}
		return nil, errors.Wrapf(err, "store: opening gcs object %s/%s", bucket, key)
	}
	return &closeBoth{rc, client}, nil
}

func (gcsStore) Delete(ctx context.Context, path string) error {
	bucket, key := splitBucketKey(path)
	client, err := storage.NewClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	err = client.Bucket(bucket).Object(key).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}

// closeBoth closes the object reader then the client that created it, so
// the per-request client doesn't leak past a single Open/Close cycle.
type closeBoth struct {
	io.ReadCloser
	client *storage.Client
}

func (c *closeBoth) Close() error {
	err := c.ReadCloser.Close()
	c.client.Close()
	return err
}
