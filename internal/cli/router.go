package cli

import (
	"context"
	"sync"

	"github.com/indicompute/indicompute/internal/nav"
)

// router is the Navigator of the command line. A navigation is queued and
// opened once the running command returns, like a page load replacing the
// current one.
type router struct {
	mu      sync.Mutex
	pending nav.Page
}

func (r *router) Navigate(_ context.Context, to nav.Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = to
}

func (r *router) next() (nav.Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	to := r.pending
	r.pending = ""
	return to, to != ""
}
