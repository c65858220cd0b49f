// Package kvdb is a tiny embedded key-value store used by the shard
// orchestrator to record per-shard completion descriptors for observability.
// It is deliberately not a coordination store: nothing in the pipeline reads
// it back while processing, so it never becomes shared mutable state between
// shards (see SPEC_FULL.md's dropped-cross-shard-state note).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package kvdb

import (
	"github.com/tidwall/buntdb"
)

// Driver is the minimal interface the job descriptor store needs; having it
// as an interface (rather than a *buntdb.DB everywhere) mirrors the
// teacher's own kvdb.Driver seam between infoStore and its backing engine.
type Driver interface {
	Set(bucket, key, value string) error
	Get(bucket, key string) (string, error)
	Iter(bucket string, each func(key, value string) bool) error
	Close() error
}

type buntDriver struct {
	db *buntdb.DB
}

// NewBunt opens (or creates) a buntdb-backed Driver at path. Use ":memory:"
// for an ephemeral, process-local store (tests, or a driver that doesn't
// care about surviving a restart).
func NewBunt(path string) (Driver, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &buntDriver{db: db}, nil
}

func nskey(bucket, key string) string { return bucket + "/" + key }

func (d *buntDriver) Set(bucket, key, value string) error {
	return d.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(nskey(bucket, key), value, nil)
		return err
	})
}

func (d *buntDriver) Get(bucket, key string) (val string, err error) {
	err = d.db.View(func(tx *buntdb.Tx) error {
		v, e := tx.Get(nskey(bucket, key))
		val = v
		return e
	})
	return val, err
}

func (d *buntDriver) Iter(bucket string, each func(key, value string) bool) error {
	prefix := bucket + "/"
	return d.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(k, v string) bool {
			return each(k[len(prefix):], v)
		})
	})
}

func (d *buntDriver) Close() error { return d.db.Close() }
