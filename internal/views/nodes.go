package views

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

// NodeForm is the raw registration input. Values are coerced only when the
// request is built.
type NodeForm struct {
	Location     string
	GPUModel     string
	GPUCount     string
	PricePerHour string
}

func (f NodeForm) missing() string {
	switch {
	case strings.TrimSpace(f.Location) == "":
		return "location"
	case strings.TrimSpace(f.GPUModel) == "":
		return "GPU model"
	case strings.TrimSpace(f.GPUCount) == "":
		return "GPU count"
	case strings.TrimSpace(f.PricePerHour) == "":
		return "price per hour"
	}
	return ""
}

func (f NodeForm) request() models.RegisterNodeRequest {
	return models.RegisterNodeRequest{
		Location:     f.Location,
		GPUModel:     f.GPUModel,
		GPUCount:     models.CoerceNumber(f.GPUCount),
		PricePerHour: models.CoerceNumber(f.PricePerHour),
	}
}

// Nodes lists the provider's GPU nodes and registers new ones.
type Nodes struct {
	env *Env

	mu      sync.Mutex
	nodes   []models.GPUNode
	banner  ui.Toast
	message ui.Toast
}

func NewNodes(env *Env) *Nodes {
	return &Nodes{env: env}
}

func (v *Nodes) Title() string {
	return "My GPU Nodes"
}

func (v *Nodes) Load(ctx context.Context) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	nodes, err := v.env.API.Nodes(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case err == nil:
		v.nodes = nodes
		v.banner = ui.Toast{}
	case api.StatusCode(err) == http.StatusForbidden:
		v.nodes = nil
		v.banner = ui.Error("❌ Unauthorized: Please login again.")
	default:
		v.env.Log.WithError(err).Warn("loading GPU nodes")
		v.nodes = nil
		v.banner = ui.Error("Failed to fetch GPU nodes ❌")
	}
	return err
}

// Register adds a node and reloads the list. All fields are required; the
// numeric ones are sent as coerced, invalid numbers included, and the
// backend decides.
func (v *Nodes) Register(ctx context.Context, form NodeForm) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}
	if missing := form.missing(); missing != "" {
		v.setMessage(ui.Error(fmt.Sprintf("❌ %s is required", missing)))
		return ErrInvalidInput
	}

	err := v.env.API.RegisterNode(ctx, form.request())
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, func(*api.Error) ui.Toast {
			return ui.Error("❌ Failed to add GPU Node")
		}, ui.Error("❌ Server Error while adding node")))
		return err
	}

	v.setMessage(ui.Success("✅ GPU Node Added Successfully!"))
	if err := v.Load(ctx); isLoginRequired(err) {
		return err
	}
	return nil
}

func (v *Nodes) setMessage(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = t
}

func (v *Nodes) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *Nodes) Banner() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.banner
}

func (v *Nodes) List() []models.GPUNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.GPUNode(nil), v.nodes...)
}

func (v *Nodes) Render(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.message.Render(w)
	v.banner.Render(w)
	if len(v.nodes) == 0 {
		if v.banner.Empty() {
			fmt.Fprintln(w, "No GPU nodes registered yet.")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODEL\tSTATUS\tLOCATION\tGPUS\tPRICE\tLAST ACTIVE")
	for _, n := range v.nodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			n.ID, orDefault(n.GPUModel, "Unnamed Node"), ui.OnlineStatus(n.IsOnline),
			n.Location, n.GPUCount, hourlyPrice(n.PricePerHour), ui.OrNA(n.LastHeartbeat))
	}
	tw.Flush()
}

func hourlyPrice(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s%s/hr", ui.Currency, formatNumber(*p))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
