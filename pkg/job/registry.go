package job

import (
	"strings"
	"sync"
)

// submissionRegistry deduplicates (extranonce1, extranonce2, ntime, nonce)
// submissions against one Job. Backed by sync.Map so concurrent workers can
// test-and-insert without a shared lock (spec §5, §9: "implement as a
// concurrent hash set with atomic insertion").
type submissionRegistry struct {
	seen sync.Map // key string -> struct{}{}
}

func submissionKey(extranonce1, extranonce2, ntime, nonce string) string {
	var b strings.Builder
	b.Grow(len(extranonce1) + len(extranonce2) + len(ntime) + len(nonce))
	b.WriteString(strings.ToLower(extranonce1))
	b.WriteString(strings.ToLower(extranonce2))
	b.WriteString(strings.ToLower(ntime))
	b.WriteString(strings.ToLower(nonce))
	return b.String()
}

// insertIfAbsent returns true if key was newly inserted, false if it was
// already present. LoadOrStore is the atomic test-and-insert primitive the
// registry requires under concurrent submission.
func (r *submissionRegistry) insertIfAbsent(key string) bool {
	_, loaded := r.seen.LoadOrStore(key, struct{}{})
	return !loaded
}
