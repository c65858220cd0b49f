package dload

import (
	"errors"
	"sync/atomic"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/cmn/nlog"
)

// ColumnIndex is C4's one-time column resolution (§4.4): a missing optional
// column resolves to -1, which disables its feature for this shard.
type ColumnIndex struct {
	URL     int
	Caption int
	Hash    int // verify_hash_type's column
	BBox    int // blurring_bbox_col
}

func BuildColumnIndex(columnList []string, verifyHashType, blurringBBoxCol string) ColumnIndex {
	idx := ColumnIndex{URL: -1, Caption: -1, Hash: -1, BBox: -1}
	for i, c := range columnList {
		switch {
		case c == "url":
			idx.URL = i
		case c == "caption":
			idx.Caption = i
		case verifyHashType != "" && c == verifyHashType:
			idx.Hash = i
		case blurringBBoxCol != "" && c == blurringBBoxCol:
			idx.BBox = i
		}
	}
	return idx
}

// Processor is C6: the per-row state machine (fetch -> hash-verify ->
// transform -> exif -> hash -> write), run once per RawRowResult by the
// bounded pipeline's single consumer goroutine.
type Processor struct {
	cfg     *Config
	colIdx  ColumnIndex
	colList []string
	shardID int
	p       int // SamplesPerShardOOM
	writer  SampleWriter
	multi   MultiImageWriter // non-nil iff writer advertises it
	status  *CappedCounter

	count          int64
	successes      int64
	failedDownload int64
	failedResize   int64
}

func NewProcessor(cfg *Config, shardID int, colIdx ColumnIndex, p int, writer SampleWriter, status *CappedCounter) *Processor {
	mw, _ := writer.(MultiImageWriter)
	return &Processor{
		cfg:     cfg,
		colIdx:  colIdx,
		colList: cfg.ColumnList,
		shardID: shardID,
		p:       p,
		writer:  writer,
		multi:   mw,
		status:  status,
	}
}

func (pr *Processor) Counts() (count, successes, failedDownload, failedResize int64) {
	return atomic.LoadInt64(&pr.count),
		atomic.LoadInt64(&pr.successes),
		atomic.LoadInt64(&pr.failedDownload),
		atomic.LoadInt64(&pr.failedResize)
}

// Process implements the row-level dispatch: single-URL rows run S1-S6 once;
// list-URL rows run an independent S3-S5 per non-null sub-URL and aggregate.
func (pr *Processor) Process(raw RawRowResult) {
	row := raw.Row
	atomic.AddInt64(&pr.count, 1)

	strKey := FormatKey(row.RowIndex, pr.shardID, pr.p, pr.cfg.ShardCountOOM)
	meta := pr.buildMeta(row, strKey)
	caption := pr.caption(row)

	if row.URL.IsList {
		pr.processList(raw, row, strKey, meta, caption)
		return
	}
	pr.processSingle(raw, strKey, meta, caption)
}

// buildMeta echoes every payload column except the verification-hash
// column (invariant 5), plus key and the append-schema fields initialised
// to their zero value.
func (pr *Processor) buildMeta(row *Row, strKey string) map[string]any {
	meta := make(map[string]any, len(pr.colList)+8)
	for i, col := range pr.colList {
		if i == pr.colIdx.Hash {
			continue
		}
		if i < len(row.Payload) {
			meta[col] = row.Payload[i]
		}
	}
	meta["key"] = strKey
	meta["status"] = ""
	meta["error_message"] = ""
	meta["width"] = nil
	meta["height"] = nil
	meta["original_width"] = nil
	meta["original_height"] = nil
	if pr.cfg.ExtractEXIF {
		meta["exif"] = nil
	}
	if pr.cfg.ComputeHash != "" {
		meta[pr.cfg.ComputeHash] = nil
	}
	return meta
}

func (pr *Processor) caption(row *Row) *string {
	if pr.colIdx.Caption < 0 || pr.colIdx.Caption >= len(row.Payload) {
		return nil
	}
	s, ok := row.Payload[pr.colIdx.Caption].(string)
	if !ok {
		return nil
	}
	return &s
}

func (pr *Processor) bbox(row *Row) any {
	if pr.colIdx.BBox < 0 || pr.colIdx.BBox >= len(row.Payload) {
		return nil
	}
	return row.Payload[pr.colIdx.BBox]
}

func (pr *Processor) processSingle(raw RawRowResult, strKey string, meta map[string]any, caption *string) {
	row := raw.Row
	fo := raw.Single

	// S1
	if !fo.ok() {
		msg := fo.Err.Error()
		pr.failSingle(meta, strKey, caption, StatusFailedToDownload, msg)
		return
	}
	body := fo.Body

	// S2
	if pr.colIdx.Hash >= 0 && pr.cfg.VerifyHashType != "" {
		if want, ok := payloadHash(row, pr.colIdx.Hash); ok {
			if digestHex(pr.cfg.VerifyHashType, body) != want {
				pr.failSingle(meta, strKey, caption, StatusFailedToDownload, "hash mismatch")
				return
			}
		}
	}

	// S3
	img, w, h, ow, oh, errMsg := pr.cfg.Resizer.Resize(body, pr.bbox(row))
	if errMsg != "" {
		pr.failSingle(meta, strKey, caption, StatusFailedToResize, errMsg)
		return
	}

	// S4, S5
	meta["status"] = StatusSuccess
	meta["error_message"] = ""
	meta["width"], meta["height"], meta["original_width"], meta["original_height"] = w, h, ow, oh
	if pr.cfg.ExtractEXIF {
		if ex, ok := extractEXIF(body); ok {
			meta["exif"] = ex
		}
	}
	if pr.cfg.ComputeHash != "" {
		meta[pr.cfg.ComputeHash] = digestHex(pr.cfg.ComputeHash, body)
	}

	// S6
	if err := pr.writer.Write(img, strKey, caption, meta); err != nil {
		nlog.Errorf("row %d (%s): writer error: %v", row.RowIndex, strKey, err)
	}
	atomic.AddInt64(&pr.successes, 1)
	pr.status.Increment(StatusSuccess)
}

func (pr *Processor) failSingle(meta map[string]any, strKey string, caption *string, status, msg string) {
	meta["status"] = status
	meta["error_message"] = msg
	if err := pr.writer.Write(nil, strKey, caption, meta); err != nil {
		nlog.Errorf("row key=%s: writer error: %v", strKey, err)
	}
	switch status {
	case StatusFailedToDownload:
		atomic.AddInt64(&pr.failedDownload, 1)
	case StatusFailedToResize:
		atomic.AddInt64(&pr.failedResize, 1)
	}
	pr.status.Increment(msg)
}

func (pr *Processor) processList(raw RawRowResult, row *Row, strKey string, meta map[string]any, caption *string) {
	multi := make([]MultiImageResult, 0, len(raw.List))
	anySuccess := false
	var errs cos.Errs

	if pr.colIdx.Hash >= 0 && pr.cfg.VerifyHashType != "" {
		for range raw.List {
			nlog.Warningf("row key=%s: hash verification skipped for list-url sub-result (%s, §9 open question a)", strKey, pr.cfg.VerifyHashType)
		}
	}

	for _, fo := range raw.List {
		subMeta := copyMeta(meta)

		if !fo.ok() {
			msg := fo.Err.Error()
			subMeta["status"] = StatusFailedToDownload
			subMeta["error_message"] = msg
			multi = append(multi, MultiImageResult{Meta: subMeta})
			atomic.AddInt64(&pr.failedDownload, 1)
			pr.status.Increment(msg)
			errs.Add(errors.New(msg))
			continue
		}

		img, w, h, ow, oh, errMsg := pr.cfg.Resizer.Resize(fo.Body, pr.bbox(row))
		if errMsg != "" {
			subMeta["status"] = StatusFailedToResize
			subMeta["error_message"] = errMsg
			multi = append(multi, MultiImageResult{Meta: subMeta})
			atomic.AddInt64(&pr.failedResize, 1)
			pr.status.Increment(errMsg)
			errs.Add(errors.New(errMsg))
			continue
		}

		anySuccess = true
		subMeta["status"] = StatusSuccess
		subMeta["error_message"] = ""
		subMeta["width"], subMeta["height"], subMeta["original_width"], subMeta["original_height"] = w, h, ow, oh
		if pr.cfg.ExtractEXIF {
			if ex, ok := extractEXIF(fo.Body); ok {
				subMeta["exif"] = ex
			}
		}
		if pr.cfg.ComputeHash != "" {
			subMeta[pr.cfg.ComputeHash] = digestHex(pr.cfg.ComputeHash, fo.Body)
		}
		multi = append(multi, MultiImageResult{Image: img, Meta: subMeta})
		atomic.AddInt64(&pr.successes, 1)
		pr.status.Increment(StatusSuccess)
	}

	switch {
	case anySuccess && pr.multi != nil:
		if err := pr.multi.WriteMultiImages(multi, strKey, caption); err != nil {
			nlog.Errorf("row key=%s: multi-writer error: %v", strKey, err)
		}
	case anySuccess:
		// §9 open question b / §4.6: writer lacks write_multi_images,
		// fall back to the first successful sub-outcome only.
		for _, r := range multi {
			if r.Image != nil {
				if err := pr.writer.Write(r.Image, strKey, caption, r.Meta); err != nil {
					nlog.Errorf("row key=%s: writer error: %v", strKey, err)
				}
				break
			}
		}
	default:
		if errs.Cnt() > 0 {
			nlog.Warningf("row key=%s: all %d sub-url(s) failed: %s", strKey, len(multi), errs.Error())
		}
		first := meta
		if len(multi) > 0 {
			first = multi[0].Meta
		}
		if err := pr.writer.Write(nil, strKey, caption, first); err != nil {
			nlog.Errorf("row key=%s: writer error: %v", strKey, err)
		}
	}
}

func payloadHash(row *Row, idx int) (string, bool) {
	if idx < 0 || idx >= len(row.Payload) {
		return "", false
	}
	s, ok := row.Payload[idx].(string)
	return s, ok && s != ""
}

func copyMeta(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
