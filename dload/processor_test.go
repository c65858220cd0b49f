package dload_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/wswaq/img2dataset/dload"
)

type fakeResizer struct {
	errMessage string
}

func (f fakeResizer) Resize(body []byte, _ any) ([]byte, int, int, int, int, string) {
	if f.errMessage != "" {
		return nil, 0, 0, 0, 0, f.errMessage
	}
	return body, 10, 20, 10, 20, ""
}

type writtenRecord struct {
	image   []byte
	key     string
	caption *string
	meta    map[string]any
}

type fakeWriter struct {
	mu      sync.Mutex
	written []writtenRecord
}

func (w *fakeWriter) Write(image []byte, key string, caption *string, meta map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, writtenRecord{image, key, caption, meta})
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func (w *fakeWriter) records() []writtenRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]writtenRecord(nil), w.written...)
}

func testConfig(verifyHash, computeHash string) *dload.Config {
	return &dload.Config{
		ColumnList:      []string{"url", "caption", verifyHash},
		VerifyHashType:  verifyHash,
		ComputeHash:     computeHash,
		SamplesPerShard: 100,
		ShardCountOOM:   3,
	}
}

func TestProcessorSingleSuccess(t *testing.T) {
	cfg := &dload.Config{ColumnList: []string{"url", "caption"}}
	colIdx := dload.BuildColumnIndex(cfg.ColumnList, "", "")
	writer := &fakeWriter{}
	proc := dload.NewProcessor(cfg, 1, colIdx, 2, writer, dload.NewCappedCounter(0))

	row := &dload.Row{RowIndex: 0, URL: dload.RowURL{Single: "http://example.invalid/a.jpg"}, Payload: []any{"http://example.invalid/a.jpg", "a caption"}}
	cfg.Resizer = fakeResizer{}
	proc.Process(dload.RawRowResult{Row: row, Single: dload.FetchOutcome{Body: []byte("bytes")}})

	recs := writer.records()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].meta["status"] != dload.StatusSuccess {
		t.Errorf("status = %v, want %v", recs[0].meta["status"], dload.StatusSuccess)
	}
	if recs[0].meta["width"] != 10 {
		t.Errorf("width = %v, want 10", recs[0].meta["width"])
	}
	count, successes, failedDL, failedResize := proc.Counts()
	if count != 1 || successes != 1 || failedDL != 0 || failedResize != 0 {
		t.Errorf("counts = (%d,%d,%d,%d), want (1,1,0,0)", count, successes, failedDL, failedResize)
	}
}

func TestProcessorSingleFetchFailure(t *testing.T) {
	cfg := &dload.Config{ColumnList: []string{"url"}, Resizer: fakeResizer{}}
	colIdx := dload.BuildColumnIndex(cfg.ColumnList, "", "")
	writer := &fakeWriter{}
	proc := dload.NewProcessor(cfg, 1, colIdx, 2, writer, dload.NewCappedCounter(0))

	row := &dload.Row{RowIndex: 1, URL: dload.RowURL{Single: "http://example.invalid/b.jpg"}, Payload: []any{"http://example.invalid/b.jpg"}}
	proc.Process(dload.RawRowResult{Row: row, Single: dload.FetchOutcome{Err: errors.New("connection refused")}})

	recs := writer.records()
	if len(recs) != 1 || recs[0].meta["status"] != dload.StatusFailedToDownload {
		t.Fatalf("unexpected record: %+v", recs)
	}
	if recs[0].image != nil {
		t.Errorf("expected nil image on failure, got %v", recs[0].image)
	}
}

func TestProcessorListAggregatesOnAnySuccess(t *testing.T) {
	cfg := &dload.Config{ColumnList: []string{"url"}, Resizer: fakeResizer{}}
	colIdx := dload.BuildColumnIndex(cfg.ColumnList, "", "")
	writer := &fakeWriter{}
	proc := dload.NewProcessor(cfg, 2, colIdx, 2, writer, dload.NewCappedCounter(0))

	row := &dload.Row{RowIndex: 3, URL: dload.RowURL{IsList: true}, Payload: []any{nil}}
	raw := dload.RawRowResult{
		Row: row,
		List: []dload.FetchOutcome{
			{Err: errors.New("timeout")},
			{Body: []byte("ok-bytes")},
		},
	}
	proc.Process(raw)

	recs := writer.records()
	if len(recs) != 1 {
		t.Fatalf("expected a single fallback write (no MultiImageWriter), got %d", len(recs))
	}
	if recs[0].meta["status"] != dload.StatusSuccess {
		t.Errorf("status = %v, want success (first successful sub-outcome)", recs[0].meta["status"])
	}
	_, successes, failedDL, _ := proc.Counts()
	if successes != 1 || failedDL != 1 {
		t.Errorf("successes=%d failedDL=%d, want 1,1", successes, failedDL)
	}
}
