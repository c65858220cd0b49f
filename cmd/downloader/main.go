// Command downloader is a minimal runnable entrypoint around the dload
// pipeline. CLI/config wiring is explicitly out of scope for the pipeline
// itself (§1); this binary exists only so the package has one, using the
// simplest possible Resizer/SampleWriter so a shard can be driven end to
// end without a real transform/storage stack plugged in.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/cmn/nlog"
	"github.com/wswaq/img2dataset/dload"
)

func main() {
	var (
		shardPath       = flag.String("shard", "", "path to the input shard file (required)")
		shardID         = flag.Int("shard-id", 0, "numeric shard id")
		outputFolder    = flag.String("output", ".", "output folder for the written shard and stats")
		columns         = flag.String("columns", "url,caption", "comma-separated column_list")
		threads         = flag.Int("threads", 16, "thread_count")
		timeout         = flag.Duration("timeout", 10*time.Second, "per-fetch timeout")
		retries         = flag.Int("retries", 0, "retries per URL")
		samplesPerShard = flag.Int("samples-per-shard", 10000, "samples_per_shard")
		shardCountOOM   = flag.Int("q", 5, "shard_count_oom")
		computeHash     = flag.String("compute-hash", "", "compute_hash algorithm name, empty to disable")
		verifyHashType  = flag.String("verify-hash", "", "verify_hash_type algorithm name, empty to disable")
		extractEXIF     = flag.Bool("extract-exif", false, "extract_exif")
		saveCaption     = flag.Bool("save-caption", true, "save_caption")
		uaToken         = flag.String("ua-token", "", "user_agent_token")
		encodeFormat    = flag.String("encode-format", "jpg", "encode_format")
		jobstoreDir     = flag.String("jobstore-dir", "", "directory for the shard descriptor store, empty to disable")
	)
	flag.Parse()

	if *shardPath == "" {
		cos.Exitf("img2dataset: -shard is required")
	}

	cfg := &dload.Config{
		Resizer:         identityResizer{},
		NewSampleWriter: newJSONLWriter,
		ThreadCount:     *threads,
		SaveCaption:     *saveCaption,
		ExtractEXIF:     *extractEXIF,
		OutputFolder:    *outputFolder,
		ColumnList:      strings.Split(*columns, ","),
		Timeout:         *timeout,
		SamplesPerShard: *samplesPerShard,
		ShardCountOOM:   *shardCountOOM,
		ComputeHash:     *computeHash,
		VerifyHashType:  *verifyHashType,
		EncodeFormat:    *encodeFormat,
		Retries:         *retries,
		UserAgentToken:  *uaToken,
	}

	var jobs *dload.JobStore
	if *jobstoreDir != "" {
		js, err := dload.OpenJobStore(*jobstoreDir)
		if err != nil {
			cos.Exitf("img2dataset: opening jobstore: %v", err)
		}
		defer js.Close()
		jobs = js
	}

	ok, st, err := dload.ProcessShard(context.Background(), cfg, *shardID, *shardPath, jobs)
	if err != nil {
		nlog.Errorf("shard %d failed: %v", *shardID, err)
	}
	nlog.Flush()
	if st != nil {
		fmt.Fprintf(os.Stderr, "shard %d: count=%d successes=%d failed_to_download=%d failed_to_resize=%d\n",
			st.ShardID, st.Count, st.Successes, st.FailedToDownload, st.FailedToResize)
	}
	if !ok {
		os.Exit(1)
	}
}

// identityResizer is the default Resizer: it decodes the image just far
// enough to report its dimensions and passes the original bytes through
// unchanged, with no actual resize. Good enough to drive a shard end to end
// without a real transform plugged in.
type identityResizer struct{}

func (identityResizer) Resize(body []byte, _ any) (image []byte, width, height, originalWidth, originalHeight int, errMessage string) {
	cfg, _, err := decodeConfig(body)
	if err != nil {
		return nil, 0, 0, 0, 0, fmt.Sprintf("decode error: %v", err)
	}
	return body, cfg.Width, cfg.Height, cfg.Width, cfg.Height, ""
}

func decodeConfig(body []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(body))
}

// jsonlWriter is the default SampleWriter: one gzip-compressed JSON-lines
// file per shard, written under output_folder/<shard_id>.jsonl.gz.
type jsonlWriter struct {
	mu  sync.Mutex
	f   *os.File
	gz  *gzip.Writer
	enc *jsoniter.Encoder
}

func newJSONLWriter(shardID int, outputFolder string, _ bool, _ int, _ dload.Schema, _ string) dload.SampleWriter {
	path := fmt.Sprintf("%s/%s.jsonl.gz", outputFolder, strconv.Itoa(shardID))
	f, err := os.Create(path)
	if err != nil {
		cos.Exitf("img2dataset: creating %s: %v", path, err)
	}
	gz := gzip.NewWriter(f)
	return &jsonlWriter{f: f, gz: gz, enc: jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(gz)}
}

func (w *jsonlWriter) Write(image []byte, strKey string, caption *string, meta map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		rec[k] = v
	}
	rec["key"] = strKey
	if caption != nil {
		rec["caption"] = *caption
	}
	if image != nil {
		rec["image_bytes"] = len(image)
	}
	return w.enc.Encode(rec)
}

func (w *jsonlWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.gz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
