package candle

import (
	"math/rand"
	"sync"
)

// VolumeSource assigns the volume of a freshly opened live bucket. The quote feed
// carries no live volume, so whatever this returns is an approximation; real volume
// only ever comes from the historical candle feed.
type VolumeSource interface {
	Volume(symbol string, bucketStart int64) float64
}

// VolumeFunc adapts a function to VolumeSource.
type VolumeFunc func(symbol string, bucketStart int64) float64

func (f VolumeFunc) Volume(symbol string, bucketStart int64) float64 { return f(symbol, bucketStart) }

// ZeroVolume leaves live buckets without volume.
type ZeroVolume struct{}

func (ZeroVolume) Volume(string, int64) float64 { return 0 }

// RandomVolume draws a whole number in [0, limit) per bucket.
type RandomVolume struct {
	mu    sync.Mutex
	rng   *rand.Rand
	limit int64
}

// NewRandomVolume returns a seeded random source. limit <= 0 defaults to one million.
func NewRandomVolume(seed, limit int64) *RandomVolume {
	if limit <= 0 {
		limit = 1_000_000
	}
	return &RandomVolume{rng: rand.New(rand.NewSource(seed)), limit: limit}
}

func (r *RandomVolume) Volume(string, int64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return float64(r.rng.Int63n(r.limit))
}

// NewVolumeSource maps a configured name to a source.
func NewVolumeSource(name string, seed int64) VolumeSource {
	switch name {
	case "random":
		return NewRandomVolume(seed, 0)
	default:
		return ZeroVolume{}
	}
}
