package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

var DashboardLinks = []ui.Link{
	{Label: "GPU Nodes", Command: "indicompute nodes"},
	{Label: "Marketplace", Command: "indicompute marketplace"},
	{Label: "Submit Job", Command: "indicompute submit-job"},
	{Label: "Wallet", Command: "indicompute wallet"},
	{Label: "Logout", Command: "indicompute logout"},
}

type Dashboard struct {
	env *Env

	mu      sync.Mutex
	loaded  bool
	user    models.User
	balance float64
	nodes   int
	message ui.Toast
}

func NewDashboard(env *Env) *Dashboard {
	return &Dashboard{env: env}
}

func (v *Dashboard) Title() string {
	return "Dashboard"
}

// Load fetches the profile, balance and node list together. Either all three
// succeed or the dashboard shows a single error.
func (v *Dashboard) Load(ctx context.Context) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	var (
		user               *models.User
		wallet             *models.Wallet
		nodes              []models.GPUNode
		userErr, walletErr error
		nodesErr           error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, userErr = v.env.API.Me(gctx)
		return userErr
	})
	g.Go(func() error {
		wallet, walletErr = v.env.API.WalletBalance(gctx)
		return walletErr
	})
	g.Go(func() error {
		nodes, nodesErr = v.env.API.Nodes(gctx)
		return nodesErr
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		if err := v.env.Guard.Check(ctx, firstUnauthorized(userErr, walletErr, nodesErr)); isLoginRequired(err) {
			return err
		}
		v.env.Log.WithError(err).Warn("loading dashboard")
		v.mu.Lock()
		v.loaded = false
		v.user = models.User{}
		v.balance = 0
		v.nodes = 0
		v.message = ui.Warning("⚠️ Network or server error")
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.user = *user
	v.balance = wallet.WalletBalance
	v.nodes = len(nodes)
	v.message = ui.Toast{}
	return nil
}

func (v *Dashboard) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *Dashboard) Render(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.message.Render(w)
	if !v.loaded {
		return
	}
	fmt.Fprintf(w, "Welcome, %s\n\n", ui.OrNA(v.user.FullName))
	fmt.Fprintf(w, "  Email:     %s\n", ui.OrNA(v.user.Email))
	fmt.Fprintf(w, "  Username:  %s\n", ui.OrNA(v.user.Username))
	fmt.Fprintf(w, "  Balance:   %s\n", ui.Money(v.balance))
	fmt.Fprintf(w, "  GPU Nodes: %d\n\n", v.nodes)
	ui.Links(w, DashboardLinks)
}
