// Package callerid provides a debug-only assertion that a value is only
// ever touched from the goroutine that first used it.
//
// This exists because the go-utilpkg pack's own goroutineid module turned
// out to be an empty placeholder (a go.mod with no source files) rather
// than a usable API, so the single-writer check corerun's debug safety
// profile needs is implemented locally instead, using the same
// runtime.Stack-parsing technique goroutine-id helpers in the wild
// typically use.
package callerid

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
)

// Guard records the identity of the first goroutine to call Check, and
// panics if a later call observes a different goroutine. It is meant to
// be allocated only under a debug safety profile; the zero-overhead
// release/hardened paths never construct one.
type Guard struct {
	id uint64
}

// NewGuard returns an unset Guard; the first Check call binds it.
func NewGuard() *Guard { return &Guard{} }

// Check binds the guard to the calling goroutine on first use, and
// panics if called from any other goroutine thereafter.
func (g *Guard) Check() {
	id := currentGoroutineID()
	if g.id == 0 {
		g.id = id
		return
	}
	if g.id != id {
		panic(fmt.Sprintf("callerid: value used from goroutine %d after being bound to goroutine %d; this runtime is single-threaded cooperative, not safe for concurrent use", id, g.id))
	}
}

// currentGoroutineID parses the calling goroutine's numeric ID out of its
// stack trace header ("goroutine 123 [running]:"). This is the same
// trick used by ad-hoc goroutine-id helpers across the ecosystem; it is
// deliberately not exposed as a general-purpose API since the runtime
// team does not guarantee the stack header format, only that this debug
// assertion degrades to "never panics" if parsing ever fails.
func currentGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	sp := bytes.IndexByte(buf, ' ')
	if sp < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(buf[:sp]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
