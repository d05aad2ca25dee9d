package html2pdf

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/flock"
)

// callGate serializes every call into the native engine. Waiting is
// unbounded: callers queue instead of failing when the engine is busy.
//
// When a lock file is configured the gate also holds an exclusive file
// lock, so processes sharing one engine installation take turns as well.
type callGate struct {
	mu   sync.Mutex
	file fileLock
}

// fileLock is the part of *flock.Flock the gate uses.
type fileLock interface {
	Lock() error
	Unlock() error
	Path() string
}

func newCallGate(lockFile string) *callGate {
	g := &callGate{}
	if lockFile != "" {
		g.file = flock.New(lockFile)
	}
	return g
}

// do runs fn while holding the gate. The gate is released on every exit
// path, panics included. A failure to release the lock file is joined to
// the error fn returned.
func (g *callGate) do(fn func() error) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.file != nil {
		if err := g.file.Lock(); err != nil {
			return fmt.Errorf("acquiring engine lock file %s: %w", g.file.Path(), err)
		}
		defer func() {
			if uerr := g.file.Unlock(); uerr != nil {
				err = errors.Join(err, fmt.Errorf("releasing engine lock file %s: %w", g.file.Path(), uerr))
			}
		}()
	}

	return fn()
}
