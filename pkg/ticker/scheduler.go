package ticker

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned stop func is called.
// The first run happens one full period after Every returns.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

// RealScheduler drives callbacks from a time.Ticker on its own goroutine.
type RealScheduler struct{}

func (RealScheduler) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})

	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				// A tick and a stop can be ready together; stop wins
				select {
				case <-done:
					return
				default:
				}
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
