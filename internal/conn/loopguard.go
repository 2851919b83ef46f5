package conn

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// debugGoroutines gates the cost of loopGuard.check(): parsing a goroutine's
// own stack trace on every call is too expensive to leave on by default, so
// (like the real x/net/http2 it's modeled on) the check is normally a no-op
// and only earns its keep with this flipped on during development.
const debugGoroutines = false

// loopGuard catches a bug where connection state is touched from somewhere
// other than Connection.serve's own goroutine — exactly the invariant
// baranov1ch-http2/server.go's serveG field (goroutineLock) protects via
// sc.serveG.check() before every state-touching method.
type loopGuard uint64

func newLoopGuard() loopGuard {
	if !debugGoroutines {
		return 0
	}
	return loopGuard(curGoroutineID())
}

func (g loopGuard) check() {
	if !debugGoroutines {
		return
	}
	if curGoroutineID() != uint64(g) {
		panic("rsocket: internal/conn state touched from the wrong goroutine")
	}
}

var goroutineSpacePrefix = []byte("goroutine ")

var stackBufPool = sync.Pool{New: func() any { return new([64]byte) }}

func curGoroutineID() uint64 {
	bp := stackBufPool.Get().(*[64]byte)
	defer stackBufPool.Put(bp)
	b := bp[:runtime.Stack(bp[:], false)]
	b = bytes.TrimPrefix(b, goroutineSpacePrefix)
	i := bytes.IndexByte(b, ' ')
	if i < 0 {
		panic(fmt.Sprintf("rsocket: unexpected stack trace prefix %q", b))
	}
	n, err := strconv.ParseUint(string(b[:i]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("rsocket: could not parse goroutine id from %q: %v", b[:i], err))
	}
	return n
}
