package dload

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// shardTable is the on-disk columnar representation: a column-name header
// shared by every row, followed by the row values in the same order. The
// pipeline treats the file format as opaque beyond this shape — whatever
// the shard-list producer (out of scope, §1) emits.
type shardTable struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// LoadedShard is C4's output: the derived output schema plus an in-memory
// row-oriented projection of column_list. The source table itself is
// discarded once rows is built (§4.4).
type LoadedShard struct {
	Schema  Schema
	ColIdx  ColumnIndex
	Rows    []*Row
	P       int // SamplesPerShardOOM(cfg.SamplesPerShard)
}

// LoadShard is C4: open path through the filesystem abstraction, decode the
// gzip-compressed columnar table, project column_list into row-oriented
// Rows, and derive the output schema.
func LoadShard(ctx context.Context, cfg *Config, path string) (*LoadedShard, error) {
	rc, err := store.Resolve(ctx, path)
	if err != nil {
		switch {
		case cos.IsErrNotFound(err):
			return nil, pkgerrors.Wrapf(err, "shard loader: %s does not exist", path)
		case cos.IsErrClientURLTimeout(err):
			return nil, pkgerrors.Wrapf(err, "shard loader: timed out opening %s", path)
		default:
			return nil, pkgerrors.Wrapf(err, "shard loader: opening %s", path)
		}
	}
	defer rc.Close()

	gr, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("shard loader: %s is not gzip-compressed: %w", path, err)
	}
	defer gr.Close()

	body, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("shard loader: reading %s: %w", path, err)
	}

	var table shardTable
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("shard loader: decoding %s: %w", path, err)
	}

	colPos := make(map[string]int, len(table.Columns))
	for i, c := range table.Columns {
		colPos[c] = i
	}
	urlPos, ok := colPos["url"]
	if !ok {
		return nil, fmt.Errorf("shard loader: %s has no url column", path)
	}

	projected := make([]int, len(cfg.ColumnList))
	for i, c := range cfg.ColumnList {
		pos, ok := colPos[c]
		if !ok {
			return nil, fmt.Errorf("shard loader: configured column %q not present in %s", c, path)
		}
		projected[i] = pos
	}

	rows := make([]*Row, len(table.Rows))
	for i, raw := range table.Rows {
		payload := make([]any, len(projected))
		for j, pos := range projected {
			if pos < len(raw) {
				payload[j] = raw[pos]
			}
		}
		rows[i] = &Row{
			RowIndex: i,
			URL:      parseRowURL(raw[urlPos]),
			Payload:  payload,
		}
	}

	colIdx := BuildColumnIndex(cfg.ColumnList, cfg.VerifyHashType, cfg.BlurringBBoxCol)
	schema := Schema{
		InputColumns: cfg.ColumnList,
		Appended:     AppendedSchema(cfg.ColumnList, cfg.ExtractEXIF, cfg.ComputeHash),
	}

	return &LoadedShard{
		Schema: schema,
		ColIdx: colIdx,
		Rows:   rows,
		P:      SamplesPerShardOOM(cfg.SamplesPerShard),
	}, nil
}

// parseRowURL classifies a decoded url cell per §4.2/§6.2: a bare string is
// a single-URL row; a list cell (nulls allowed) is a list-URL row.
func parseRowURL(cell any) RowURL {
	switch v := cell.(type) {
	case string:
		return RowURL{Single: v}
	case []any:
		urls := make([]*string, len(v))
		for i, e := range v {
			if s, ok := e.(string); ok {
				sCopy := s
				urls[i] = &sCopy
			}
		}
		return RowURL{List: urls, IsList: true}
	default:
		return RowURL{}
	}
}
