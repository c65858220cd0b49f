package dload

import (
	"fmt"
	"strings"
	"time"
)

// Config is the enumerated per-downloader configuration from spec §6.
// SampleWriterClass/Resizer are constructed externally and passed in as
// interfaces (Resizer, SampleWriterFactory); everything else is data.
type Config struct {
	Resizer                   Resizer
	NewSampleWriter           SampleWriterFactory
	ThreadCount               int
	SaveCaption               bool
	ExtractEXIF               bool
	OutputFolder              string
	ColumnList                []string
	Timeout                   time.Duration
	SamplesPerShard           int
	ShardCountOOM             int // q
	ComputeHash               string // algo name, "" if disabled
	VerifyHashType            string // algo name, "" if disabled
	EncodeFormat              string
	Retries                   int
	UserAgentToken            string // lowercased+trimmed on Validate
	DisallowedHeaderDirectives map[string]struct{}
	BlurringBBoxCol           string // "", if disabled
	StatusCounterCapacity     int    // 0 -> defaultCapacity
}

// SampleWriterFactory constructs a SampleWriter for one shard; mirrors
// sample_writer_class(shard_id, output_folder, save_caption, q, schema,
// encode_format) from §6/§4.7. The writer is an out-of-scope external
// collaborator — only its interface lives here.
type SampleWriterFactory func(shardID int, outputFolder string, saveCaption bool, q int, schema Schema, encodeFormat string) SampleWriter

func (c *Config) Validate() error {
	if c.Resizer == nil {
		return fmt.Errorf("dload: Resizer is required")
	}
	if c.NewSampleWriter == nil {
		return fmt.Errorf("dload: NewSampleWriter is required")
	}
	if c.ThreadCount <= 0 {
		return fmt.Errorf("dload: thread_count must be > 0, got %d", c.ThreadCount)
	}
	if c.SamplesPerShard <= 0 {
		return fmt.Errorf("dload: samples_per_shard must be > 0")
	}
	if c.ShardCountOOM < 0 {
		return fmt.Errorf("dload: shard_count_oom must be >= 0")
	}
	if c.Retries < 0 {
		return fmt.Errorf("dload: retries must be >= 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("dload: timeout must be > 0")
	}
	if !containsStr(c.ColumnList, "url") {
		return fmt.Errorf("dload: column_list must include %q", "url")
	}
	if c.ComputeHash != "" {
		if _, ok := hashAlgos[c.ComputeHash]; !ok {
			return fmt.Errorf("dload: unsupported compute_hash algorithm %q", c.ComputeHash)
		}
	}
	if c.VerifyHashType != "" {
		if _, ok := hashAlgos[c.VerifyHashType]; !ok || c.VerifyHashType == "xxh64" {
			return fmt.Errorf("dload: unsupported verify_hash_type algorithm %q", c.VerifyHashType)
		}
	}

	c.UserAgentToken = strings.ToLower(strings.TrimSpace(c.UserAgentToken))
	if c.DisallowedHeaderDirectives != nil {
		normalized := make(map[string]struct{}, len(c.DisallowedHeaderDirectives))
		for d := range c.DisallowedHeaderDirectives {
			normalized[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
		}
		c.DisallowedHeaderDirectives = normalized
	}
	return nil
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// NewDisallowedSet is a convenience constructor for
// Config.DisallowedHeaderDirectives from a plain string slice.
func NewDisallowedSet(directives []string) map[string]struct{} {
	set := make(map[string]struct{}, len(directives))
	for _, d := range directives {
		set[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return set
}
