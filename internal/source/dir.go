package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/perftrend/internal/model"
)

var _ model.RecordSource = (*DirSource)(nil)

// DirSource reads records from a local checkout of the performance data repository
type DirSource struct {
	root string
}

// NewDirSource creates a directory record source
func NewDirSource(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errm.Wrap(err, "failed to stat records dir")
	}
	if !info.IsDir() {
		return nil, errm.Errorf("%s is not a directory", root)
	}
	return &DirSource{root: root}, nil
}

// FetchRecord reads <root>/<sha>/<set>.json
func (s *DirSource) FetchRecord(ctx context.Context, sha, set string) (model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(recordPath(sha, set))))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, errm.Wrap(err, "failed to read record")
	}

	raw, err := model.DecodeRawRecord(data)
	if err != nil {
		return nil, errm.Wrap(err, "failed to decode record")
	}

	return raw, nil
}
