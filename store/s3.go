package store

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"
	pkgerrors "github.com/pkg/errors"
	"github.com/wswaq/img2dataset/cmn/cos"
)

// largeBodyThreshold is the size (§9 "large shard bodies") above which Open
// switches from a single GetObject stream to the concurrent-range-GET
// downloader, trading one extra HeadObject round trip for parallel part
// fetches on the shard body itself.
const largeBodyThreshold = 64 * 1024 * 1024

type s3Store struct{}

func init() {
	Register("s3", func() (Store, error) { return s3Store{}, nil })
}

func s3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (s3Store) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key := splitBucketKey(path)
	client, err := s3Client(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "store: s3 client")
	}

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, cos.NewErrNotFound("s3 object %s/%s", bucket, key)
		}
		return nil, pkgerrors.Wrapf(err, "store: heading s3 object %s/%s", bucket, key)
	}

	// Large shard bodies go through the download manager's concurrent
	// range-GETs instead of one streamed GetObject.
	if head.ContentLength != nil && *head.ContentLength > largeBodyThreshold {
		buf := manager.NewWriteAtBuffer(make([]byte, 0, int(*head.ContentLength)))
		downloader := manager.NewDownloader(client)
		if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			return nil, pkgerrors.Wrapf(err, "store: downloading s3 object %s/%s", bucket, key)
		}
		return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, cos.NewErrNotFound("s3 object %s/%s", bucket, key)
		}
		return nil, pkgerrors.Wrapf(err, "store: getting s3 object %s/%s", bucket, key)
	}
	return out.Body, nil
}

func isS3NotFound(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	// HeadObject reports a missing key as "NotFound", GetObject as "NoSuchKey".
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

func (s3Store) Delete(ctx context.Context, path string) error {
	bucket, key := splitBucketKey(path)
	client, err := s3Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if isS3NotFound(err) {
		return nil
	}
	return err
}
