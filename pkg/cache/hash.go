package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/segmentio/encoding/json"
)

// Keyer derives cache keys from placement inputs.
type Keyer interface {
	PlacementKey(opts PlacementKeyOpts) string
}

// PlacementKeyOpts are the inputs a placement result depends on.
type PlacementKeyOpts struct {
	// DensityHash is the hash of the decoded density volume, so detached
	// NRRD data and equivalent encodings key the same way.
	DensityHash string `json:"density"`
	// ObstaclesHash is empty when no obstacles are configured.
	ObstaclesHash string `json:"obstacles,omitempty"`
	Seed          uint64 `json:"seed"`
	// Recipe holds the remaining parameters: soma radius, placement
	// parameters, potentials and attempt cap.
	Recipe any `json:"recipe"`
}

// DefaultKeyer produces "placement:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PlacementKey hashes every field of opts.
func (DefaultKeyer) PlacementKey(opts PlacementKeyOpts) string {
	return hashKey("placement", opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashJSON returns the hex SHA-256 digest of v's JSON encoding.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// HashValues returns the hex SHA-256 digest of parts, each encoded as its
// length followed by little-endian float64 bits. Volumes are streamed
// through a small buffer rather than copied.
func HashValues(parts ...[]float64) string {
	h := sha256.New()
	buf := make([]byte, 0, 4096)
	flush := func() {
		h.Write(buf)
		buf = buf[:0]
	}
	for _, part := range parts {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(part)))
		for _, v := range part {
			if len(buf)+8 > cap(buf) {
				flush()
			}
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	flush()
	return hex.EncodeToString(h.Sum(nil))
}
