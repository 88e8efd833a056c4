// Package task provides a cancellable repeating task keyed off the owning
// resource's lifecycle: the body re-checks a live-state predicate at the top
// of each iteration and self-terminates when it turns false.
package task

import (
	"sync"
	"time"
)

// Repeating runs a function once per interval until stopped or until its
// live predicate reports false.
type Repeating struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Every starts a repeating task. live is checked before every run; a nil live
// always passes. The first run happens after one interval, not immediately.
func Every(interval time.Duration, live func() bool, fn func()) *Repeating {
	r := &Repeating{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if live != nil && !live() {
					return
				}
				fn()
			}
		}
	}()
	return r
}

// Stop cancels the task and waits for the current iteration to finish.
// Idempotent.
func (r *Repeating) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}
