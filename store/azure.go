package store

import (
	"context"
	"io"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"
	"github.com/wswaq/img2dataset/cmn/cos"
)

// azureStore is grounded on the teacher's ais/backend/azure.go client
// construction (shared-key credential from environment, account-name
// derived host) and its error-unwrap-by-bloberror style, trimmed to the
// two operations this pipeline needs.
type azureStore struct{}

func init() {
	Register("az", func() (Store, error) { return azureStore{}, nil })
}

const (
	azAccNameEnvVar = "AZURE_STORAGE_ACCOUNT"
	azAccKeyEnvVar  = "AZURE_STORAGE_KEY"
	azHost          = ".blob.core.windows.net"
)

func azClient() (*azblob.Client, error) {
	account := os.Getenv(azAccNameEnvVar)
	key := os.Getenv(azAccKeyEnvVar)
	if account == "" || key == "" {
		return nil, errors.New("store: azure backend requires " + azAccNameEnvVar + " and " + azAccKeyEnvVar)
	}
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, err
	}
	return azblob.NewClientWithSharedKeyCredential("https://"+account+azHost, cred, nil)
}

func (azureStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	container, key := splitBucketKey(path)
	client, err := azClient()
	if err != nil {
		return nil, errors.Wrap(err, "store: azure client")
	}
	resp, err := client.DownloadStream(ctx, container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, cos.NewErrNotFound("azure blob %s/%s", container, key)
		}
		return nil, errors.Wrapf(err, "store: downloading azure blob %s/%s", container, key)
	}
	return resp.Body, nil
}

func (azureStore) Delete(ctx context.Context, path string) error {
	container, key := splitBucketKey(path)
	client, err := azClient()
	if err != nil {
		return err
	}
	_, err = client.DeleteBlob(ctx, container, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil
	}
	return err
}
