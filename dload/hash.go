package dload

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"

	"github.com/OneOfOne/xxhash"
)

// hashAlgos is the named-algorithm registry backing compute_hash and
// verify_hash_type (§6). The four cryptographic digests are named exactly
// as the config expects them ("md5", "sha1", "sha256", "sha512") — no
// ecosystem library changes what algorithm a caller configured by name, so
// these intentionally come straight from crypto/*. xxh64 is an additional,
// non-cryptographic, fast option for callers who opt into it as
// compute_hash (never valid as verify_hash_type against externally
// produced digests), mirroring the teacher's own use of OneOfOne/xxhash.
var hashAlgos = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
	"xxh64":  func() hash.Hash { return xxhash.New64() },
}

// digestHex computes the hex digest of body under the named algorithm.
// Callers must have validated algo via Config.Validate.
func digestHex(algo string, body []byte) string {
	h := hashAlgos[algo]()
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
