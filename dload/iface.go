package dload

// Resizer is the out-of-scope external transform collaborator (§6). bbox,
// when non-nil, is the row's blurring_bbox_col value.
type Resizer interface {
	Resize(body []byte, bbox any) (image []byte, width, height, originalWidth, originalHeight int, errMessage string)
}

// SampleWriter is the out-of-scope external record-writer collaborator
// (§6). image is nil on every failure path. write_multi_images is
// feature-detected via MultiImageWriter, not required.
type SampleWriter interface {
	Write(image []byte, strKey string, caption *string, meta map[string]any) error
	Close() error
}

// MultiImageResult pairs one sub-outcome's image (nil on failure) with its
// fully populated meta, in the order of non-null input URLs.
type MultiImageResult struct {
	Image []byte
	Meta  map[string]any
}

// MultiImageWriter is the optional capability a SampleWriter may advertise
// (§4.6, §9 "writer capability detection"). The pipeline performs a type
// assertion against this interface rather than any runtime-reflection probe.
type MultiImageWriter interface {
	SampleWriter
	WriteMultiImages(results []MultiImageResult, strKey string, caption *string) error
}

// ColumnType enumerates the output schema's column kinds (§6).
type ColumnType int

const (
	ColString ColumnType = iota
	ColInt32
)

// Column is one column of the derived output schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the derived output schema (§4.4/§6): the input shard's columns
// (opaque to this pipeline) followed by the fixed status columns.
type Schema struct {
	InputColumns []string
	Appended     []Column
}

// AppendedSchema builds the fixed append block C4 derives:
// key, status, error_message, width, height, original_width,
// original_height, then exif (if configured), then <hash_algo> (if
// configured and not already an input column).
func AppendedSchema(inputColumns []string, extractEXIF bool, computeHash string) []Column {
	cols := []Column{
		{"key", ColString},
		{"status", ColString},
		{"error_message", ColString},
		{"width", ColInt32},
		{"height", ColInt32},
		{"original_width", ColInt32},
		{"original_height", ColInt32},
	}
	if extractEXIF {
		cols = append(cols, Column{"exif", ColString})
	}
	if computeHash != "" && !containsStr(inputColumns, computeHash) {
		cols = append(cols, Column{computeHash, ColString})
	}
	return cols
}
