package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/wswaq/img2dataset/cmn/cos"
)

type localStore struct{}

func init() {
	Register("", func() (Store, error) { return localStore{}, nil })
}

func (localStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cos.NewErrNotFound("local path %q", path)
		}
		return nil, errors.Wrapf(err, "store: opening local path %q", path)
	}
	return f, nil
}

func (localStore) Delete(_ context.Context, path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ListShards enumerates shard files under root, sorted lexically, using the
// teacher's directory-walk library (godirwalk.ReadDirents avoids the
// allocation overhead of os.ReadDir's full FileInfo population for a plain
// name listing — ref. teacher's fs package).
func ListShards(root, suffix string) ([]string, error) {
	dirents, err := godirwalk.ReadDirents(root, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dirents))
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if suffix != "" && filepath.Ext(de.Name()) != suffix {
			continue
		}
		out = append(out, filepath.Join(root, de.Name()))
	}
	sort.Strings(out)
	return out, nil
}
