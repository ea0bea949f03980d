package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller calls a refresh function on a fixed interval until it is stopped or
// its parent context ends. Calls never overlap: a slow refresh delays the
// next tick. The context passed to the refresh function is cancelled by Stop,
// so in-flight requests are abandoned with the page that started them.
type Poller struct {
	interval time.Duration
	refresh  func(context.Context)
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	log      *logrus.Entry
}

// Start launches the loop. The first call happens one interval from now.
func Start(ctx context.Context, interval time.Duration, refresh func(context.Context), log *logrus.Entry) *Poller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{
		interval: interval,
		refresh:  refresh,
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      log.WithField("component", "poller"),
	}

	p.wg.Add(1)
	go p.loop(ctx)
	return p
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Debug("stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

// Stop cancels the loop and any refresh in progress and waits for it to
// return. After Stop returns the refresh function is never called again.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	p.wg.Wait()
}

// Done is closed when the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
