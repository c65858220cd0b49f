package store

import (
	"context"
	"io"
	"os"

	"github.com/colinmarc/hdfs/v2"
	"github.com/pkg/errors"
	"github.com/wswaq/img2dataset/cmn/cos"
)

type hdfsStore struct{}

func init() {
	Register("hdfs", func() (Store, error) { return hdfsStore{}, nil })
}

const hdfsNamenodeEnvVar = "HADOOP_NAMENODE"

func hdfsClient() (*hdfs.Client, error) {
	namenode := os.Getenv(hdfsNamenodeEnvVar)
	if namenode == "" {
		return nil, os.ErrInvalid
	}
	return hdfs.New(namenode)
}

func (hdfsStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	client, err := hdfsClient()
	if err != nil {
		return nil, errors.Wrap(err, "store: hdfs client")
	}
	f, err := client.Open(StripScheme(path))
	if err != nil {
		client.Close()
		if os.IsNotExist(err) {
			return nil, cos.NewErrNotFound("hdfs path %q", path)
		}
		return nil, errors.Wrapf(err, "store: opening hdfs path %q", path)
	}
	return &hdfsReadCloser{f, client}, nil
}

func (hdfsStore) Delete(_ context.Context, path string) error {
	client, err := hdfsClient()
	if err != nil {
		return err
	}
	defer client.Close()
	err = client.Remove(StripScheme(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

type hdfsReadCloser struct {
	*hdfs.FileReader
	client *hdfs.Client
}

func (h *hdfsReadCloser) Close() error {
	err := h.FileReader.Close()
	h.client.Close()
	return err
}
