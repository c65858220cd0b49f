package dload

import (
	"fmt"

	"github.com/wswaq/img2dataset/cmn/cos"
	"github.com/wswaq/img2dataset/cmn/fname"
	"github.com/wswaq/img2dataset/cmn/kvdb"
)

const jobBucket = "shards"

// JobStore records one ShardStats descriptor per finished shard, keyed by
// shard_id, grounded on ext/dload/infostore.go's downloaderDB — simplified
// to a single bucket since there is no multi-job hierarchy in this pipeline.
type JobStore struct {
	driver kvdb.Driver
}

// OpenJobStore opens (or creates) the descriptor database at dir/fname.JobDescriptorDB.
func OpenJobStore(dir string) (*JobStore, error) {
	driver, err := kvdb.NewBunt(dir + "/" + fname.JobDescriptorDB)
	if err != nil {
		return nil, err
	}
	return &JobStore{driver: driver}, nil
}

func (js *JobStore) Record(st *ShardStats) error {
	if !cos.IsValidUUID(st.RunID) {
		return fmt.Errorf("jobstore: shard %d: invalid run id %q", st.ShardID, st.RunID)
	}
	blob, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return js.driver.Set(jobBucket, fmt.Sprintf("%d", st.ShardID), string(blob))
}

func (js *JobStore) Get(shardID int) (*ShardStats, error) {
	blob, err := js.driver.Get(jobBucket, fmt.Sprintf("%d", shardID))
	if err != nil {
		return nil, err
	}
	var st ShardStats
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (js *JobStore) Close() error { return js.driver.Close() }
