package views

import (
	"context"
	"io"

	"github.com/indicompute/indicompute/internal/poller"
)

// Page is a view that fetches its data and renders it.
type Page interface {
	Title() string
	Load(ctx context.Context) error
	Render(w io.Writer)
}

// Refresher is implemented by pages whose periodic refresh fetches less than
// their initial load.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RenderFunc draws a page, typically framed by the application shell.
type RenderFunc func(p Page)

// Watch loads and renders p, then refreshes and re-renders it every poll
// interval until ctx ends or the page redirects to login. The refresh loop is
// owned by this call: when Watch returns nothing is left running.
func Watch(ctx context.Context, env *Env, p Page, render RenderFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := p.Load(ctx); isLoginRequired(err) {
		return err
	}
	render(p)

	refresh := p.Load
	if r, ok := p.(Refresher); ok {
		refresh = r.Refresh
	}

	var stopErr error
	pl := poller.Start(ctx, env.PollInterval, func(ctx context.Context) {
		err := refresh(ctx)
		if ctx.Err() != nil {
			return
		}
		if isLoginRequired(err) {
			stopErr = err
			cancel()
			return
		}
		render(p)
	}, env.Log)

	<-pl.Done()
	pl.Stop()

	return stopErr
}
