package dload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/cmn/fname"
	"github.com/wswaq/img2dataset/cmn/nlog"
	"github.com/wswaq/img2dataset/store"
)

// ErrShardAborted wraps a pipeline- or writer-level failure that aborts a
// shard outright (as opposed to a per-row failure, which is recorded and
// never aborts). Its cause chain is preserved via %w.
var ErrShardAborted = fmt.Errorf("dload: shard aborted")

// ProcessShard is C7: owns C4-C6 for one shard end to end. A per-row
// failure inside C6 is always recorded and never aborts the shard; only a
// pipeline- or writer-construction-level error does, in which case ok=false
// and there is no guarantee the stats file was written (§4.7).
func ProcessShard(ctx context.Context, cfg *Config, shardID int, shardPath string, jobs *JobStore) (ok bool, st *ShardStats, err error) {
	if verr := cfg.Validate(); verr != nil {
		return false, nil, fmt.Errorf("%w: invalid config: %v", ErrShardAborted, verr)
	}

	runID := cos.GenUUID()
	startTime := time.Now().UnixNano()

	loaded, err := LoadShard(ctx, cfg, shardPath)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrShardAborted, err)
	}

	writer := cfg.NewSampleWriter(shardID, cfg.OutputFolder, cfg.SaveCaption, cfg.ShardCountOOM, loaded.Schema, cfg.EncodeFormat)

	capacity := cfg.StatusCounterCapacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	counter := NewCappedCounter(capacity)
	proc := NewProcessor(cfg, shardID, loaded.ColIdx, loaded.P, writer, counter)

	runErr := RunShard(ctx, cfg, loaded.Rows, proc.Process)

	if closeErr := writer.Close(); closeErr != nil {
		nlog.Errorf("shard %d: writer close error: %v", shardID, closeErr)
		if runErr == nil {
			runErr = closeErr
		}
	}

	endTime := time.Now().UnixNano()
	count, successes, failedDownload, failedResize := proc.Counts()

	st = &ShardStats{
		RunID:            runID,
		OutputFolder:     cfg.OutputFolder,
		ShardID:          shardID,
		Count:            count,
		Successes:        successes,
		FailedToDownload: failedDownload,
		FailedToResize:   failedResize,
		StartTime:        startTime,
		EndTime:          endTime,
		StatusCounter:    counter.Snapshot(),
		Q:                cfg.ShardCountOOM,
		OK:               runErr == nil,
	}
	recordShardMetrics(st)

	if jobs != nil {
		if recErr := jobs.Record(st); recErr != nil {
			nlog.Errorf("shard %d: job descriptor record error: %v", shardID, recErr)
		}
	}

	if runErr != nil {
		return false, st, fmt.Errorf("%w: %v", ErrShardAborted, runErr)
	}

	statsPath := filepath.Join(cfg.OutputFolder, fmt.Sprintf(fname.StatsFileFmt, shardID))
	if blob, mErr := json.Marshal(st); mErr != nil {
		nlog.Errorf("shard %d: encoding stats: %v", shardID, mErr)
	} else if wErr := os.WriteFile(statsPath, blob, 0o644); wErr != nil {
		nlog.Errorf("shard %d: writing stats file %s: %v", shardID, statsPath, wErr)
	}

	if delErr := store.ResolveDelete(ctx, shardPath); delErr != nil {
		nlog.Errorf("shard %d: deleting source shard %s: %v", shardID, shardPath, delErr)
	}

	return true, st, nil
}
