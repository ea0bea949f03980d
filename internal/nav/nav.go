package nav

import (
	"context"
	"sync"
)

// Page identifies a screen of the application by its route path.
type Page string

const (
	Home        Page = "/"
	Login       Page = "/auth/login"
	Signup      Page = "/auth/signup"
	Dashboard   Page = "/dashboard"
	Nodes       Page = "/gpu-nodes"
	Marketplace Page = "/marketplace"
	Jobs        Page = "/jobs"
	SubmitJob   Page = "/submit-job"
	Wallet      Page = "/wallet"
)

func (p Page) String() string {
	return string(p)
}

// Navigator leaves the current page for another one. The current page's
// state is discarded.
type Navigator interface {
	Navigate(ctx context.Context, to Page)
}

// Recorder is a Navigator that only remembers where it was sent.
type Recorder struct {
	mu    sync.Mutex
	pages []Page
}

func (r *Recorder) Navigate(_ context.Context, to Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, to)
}

func (r *Recorder) Pages() []Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Page(nil), r.pages...)
}

// Last returns the most recent destination, or "" when there was none.
func (r *Recorder) Last() Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pages) == 0 {
		return ""
	}
	return r.pages[len(r.pages)-1]
}
