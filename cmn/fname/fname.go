// Package fname contains filename and bucket-key constants shared by the
// orchestrator's job descriptor store and stats sink.
/*
 * Copyright (c) 2018-2022, NVIDIA CORPORATION. All rights reserved.
 */
package fname

const (
	// job descriptor store (jobstore), a buntdb file inside the directory
	// passed to OpenJobStore
	JobDescriptorDB = ".img2dataset.jobs.db"

	// stats file basename written alongside each shard's output, per shard_id
	StatsFileFmt = "%05d_stats.json"
)
