// Package cos provides common low-level types and error helpers shared by
// the download pipeline and its storage backends.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"sync"

	"github.com/teris-io/shortid"
)

const (
	// alphabet for generating IDs similar to the shortid.DEFAULT_ABC
	uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

	// LenShortID is the length of a GenUUID() id, per teris-io/shortid.
	LenShortID = 9
)

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func initShortID() {
	sid = shortid.MustNew(1, uuidABC, 0)
}

// GenUUID generates a short, process-local-unique id used to tag shard
// orchestrator runs in the job descriptor store (jobstore).
func GenUUID() string {
	sidOnce.Do(initShortID)
	return sid.MustGenerate()
}

func IsValidUUID(uuid string) bool { return len(uuid) >= LenShortID }
