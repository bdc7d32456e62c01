// Package clock formats elapsed time and drives the once-per-second timer tick.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Format renders elapsed seconds as zero-padded HH:MM:SS. Hours are not
// wrapped at 24.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Cancel stops a schedule. It is safe to call more than once.
type Cancel func()

// Scheduler invokes fn at a fixed interval until the returned Cancel is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

// TickerScheduler runs each schedule on its own goroutine backed by a time.Ticker.
type TickerScheduler struct{}

// Every starts a ticker goroutine. fn is never invoked after Cancel returns.
func (TickerScheduler) Every(interval time.Duration, fn func()) Cancel {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(stop)
			<-done
		})
	}
}
