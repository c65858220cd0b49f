package dload

import (
	"bytes"
	"encoding/json"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// extractEXIF is S4: parse EXIF from the raw body, serialise tag->string as
// a JSON string. Any parse failure (including "no EXIF present", the
// overwhelming common case for non-JPEG/non-camera images) yields ("",
// false) and never affects the row's status (§7 item 4).
func extractEXIF(body []byte) (string, bool) {
	x, err := exif.Decode(bytes.NewReader(body))
	if err != nil {
		return "", false
	}

	tags := make(map[string]string)
	_ = x.Walk(exifWalker(func(name exif.FieldName, tag *tiff.Tag) error {
		if tag != nil {
			tags[string(name)] = tag.String()
		}
		return nil
	}))
	if len(tags) == 0 {
		return "", false
	}

	out, err := json.Marshal(tags)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// exifWalker adapts a plain func to exif.Walker.
type exifWalker func(name exif.FieldName, tag *tiff.Tag) error

func (w exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error { return w(name, tag) }
