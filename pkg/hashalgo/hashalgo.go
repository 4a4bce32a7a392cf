// Package hashalgo is the pluggable hash-capability registry the rest of the
// core depends on: every algorithm, whatever its internal cost, reduces to
// "bytes in, 32 bytes out". Coin templates name one of these by string for
// each of coinbase_hasher, header_hasher and block_hasher.
package hashalgo

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/seehuhn/sha256d"
)

// SideInputs carries the optional per-algorithm context some header hashers
// need (time-variant PoW, coin-specific tweaks). Most algorithms ignore it;
// its exact per-algorithm contract is left to each registered Digest, per
// spec's open question on header_hasher side-inputs.
type SideInputs struct {
	NTime   uint32
	Bits    uint32
	Network string
}

// Digest maps an input buffer (and optional side inputs) to a 32-byte
// digest. Implementations are assumed total: if a primitive cannot produce
// output, that is a programmer/configuration error, not a runtime one.
type Digest func(input []byte, side SideInputs) [32]byte

var (
	mu       sync.RWMutex
	registry = map[string]Digest{}
)

func init() {
	Register("sha256d", sha256dDigest)
}

// Register adds or replaces the algorithm named name in the process-wide
// registry. Intended for initialization-time use only (spec §9: "Global
// mutable state: ... the process-wide hash-algorithm registry is
// initialization-time only").
func Register(name string, fn Digest) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Lookup returns the algorithm registered under name.
func Lookup(name string) (Digest, error) {
	mu.RLock()
	defer mu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("hashalgo: no algorithm registered for %q", name)
	}
	return fn, nil
}

// sha256dDigest is Bitcoin's default coinbase/header/block hasher: two
// rounds of SHA-256. The teacher imports seehuhn/sha256d directly for this
// same purpose in job.go's GetStratum2Params/checkExtranonceSolve.
func sha256dDigest(input []byte, _ SideInputs) [32]byte {
	h := sha256d.New()
	h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
