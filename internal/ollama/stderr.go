package ollama

import (
	"io"
	"os"
	"sync"
)

var errAlreadyFinished = os.ErrProcessDone

// maxStartupLog bounds how much engine stderr is held before it is released.
const maxStartupLog = 64 << 10

// startupLog keeps the tail of the engine's stderr while it starts, so an
// early exit can be reported with its cause. Once released it streams to out
// and holds nothing.
type startupLog struct {
	mu  sync.Mutex
	buf []byte
	out io.Writer
}

func (l *startupLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out != nil {
		// Sink errors are dropped so the engine never blocks on its pipe.
		l.out.Write(p)
		return len(p), nil
	}
	l.buf = append(l.buf, p...)
	if over := len(l.buf) - maxStartupLog; over > 0 {
		l.buf = append(l.buf[:0], l.buf[over:]...)
	}
	return len(p), nil
}

// release flushes what was kept to out and streams everything after it.
func (l *startupLog) release(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if out == nil {
		out = io.Discard
	}
	out.Write(l.buf)
	l.buf, l.out = nil, out
}

func (l *startupLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.buf)
}

func (l *startupLog) retained() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf)
}
