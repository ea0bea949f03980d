package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

// Action is the single operation the marketplace offers for a node.
type Action string

const (
	ActionSetPrice Action = "set-price"
	ActionSubmit   Action = "submit"
)

var (
	// ErrNotOwner means a price change was attempted on someone else's node.
	ErrNotOwner = errors.New("only the node owner can set its price")
	// ErrOwnNode means a job was submitted to a node the viewer owns.
	ErrOwnNode = errors.New("cannot submit a job to your own node")
)

var loadGPUsFailed = ui.Warning("⚠️ Failed to load GPUs.")

// Marketplace lists every public GPU node. Owners may price their nodes and
// everyone else may submit jobs to them.
type Marketplace struct {
	env *Env

	mu       sync.Mutex
	loaded   bool
	viewerID int64
	nodes    []models.GPUNode
	message  ui.Toast
	banner   string
}

func NewMarketplace(env *Env) *Marketplace {
	return &Marketplace{env: env}
}

func (v *Marketplace) Title() string {
	return "GPU Marketplace"
}

// Load resolves the viewer and fetches the listing. The viewer lookup only
// happens with a session; failing it leaves the viewer anonymous.
func (v *Marketplace) Load(ctx context.Context) error {
	if _, ok := v.env.Session.Get(); ok {
		me, err := v.env.API.Me(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
			return err
		}
		if err != nil {
			v.env.Log.WithError(err).Warn("resolving marketplace viewer")
			v.setViewer(0)
		} else {
			v.setViewer(me.ID)
		}
	} else {
		v.setViewer(0)
	}
	return v.Refresh(ctx)
}

// Refresh re-fetches the listing only.
func (v *Marketplace) Refresh(ctx context.Context) error {
	nodes, err := v.env.API.NodeDetails(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.env.Log.WithError(err).Warn("loading marketplace")
		v.loaded = false
		v.nodes = nil
		v.message = loadGPUsFailed
		return err
	}
	if v.message == loadGPUsFailed {
		v.message = ui.Toast{}
	}
	v.loaded = true
	v.nodes = nodes
	return nil
}

func (v *Marketplace) setViewer(id int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.viewerID = id
}

func (v *Marketplace) ViewerID() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewerID
}

func (v *Marketplace) Nodes() []models.GPUNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.GPUNode(nil), v.nodes...)
}

// Action returns what the viewer can do with node.
func (v *Marketplace) Action(node models.GPUNode) Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.actionLocked(node)
}

func (v *Marketplace) actionLocked(node models.GPUNode) Action {
	if v.viewerID != 0 && node.OwnerID == v.viewerID {
		return ActionSetPrice
	}
	return ActionSubmit
}

func (v *Marketplace) node(id int64) (models.GPUNode, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, n := range v.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return models.GPUNode{}, false
}

// SetPrice prices a node the viewer owns. The input must be a positive
// number; nothing is sent otherwise.
func (v *Marketplace) SetPrice(ctx context.Context, nodeID int64, input string) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	price := models.CoerceFloat(input)
	if !price.Valid() || price <= 0 {
		v.setMessage(ui.Error("Invalid price"))
		return ErrInvalidInput
	}

	node, ok := v.node(nodeID)
	if !ok {
		v.setMessage(ui.Error("Node not found."))
		return ErrInvalidInput
	}
	if v.Action(node) != ActionSetPrice {
		v.setMessage(ui.Error("❌ You can only set the price of your own nodes."))
		return ErrNotOwner
	}

	err := v.env.API.UpdatePrice(ctx, nodeID, models.PriceUpdateRequest{
		PricePerHour: price.Float64(),
		Currency:     v.env.Currency,
	})
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, failedWithDetail, ui.Error("Error updating price. Backend unreachable.")))
		return err
	}

	v.setMessage(ui.Success("✅ Price updated successfully!"))
	if err := v.Refresh(ctx); err != nil {
		v.env.Log.WithError(err).Warn("refreshing marketplace after price update")
	}
	return nil
}

// SubmitJob runs command on a node owned by someone else. An empty command
// is ignored.
func (v *Marketplace) SubmitJob(ctx context.Context, nodeID int64, command string) (*models.Job, error) {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(command) == "" {
		return nil, nil
	}

	node, ok := v.node(nodeID)
	if !ok {
		v.setMessage(ui.Error("Node not found."))
		return nil, ErrInvalidInput
	}
	if node.NodeKey == "" {
		v.setMessage(ui.Error("Node key not available for this node."))
		return nil, ErrInvalidInput
	}
	if v.Action(node) != ActionSubmit {
		v.setMessage(ui.Error("❌ You cannot submit jobs to your own node."))
		return nil, ErrOwnNode
	}

	job, err := v.env.API.SubmitJob(ctx, models.SubmitJobRequest{
		NodeID:  models.Number(node.ID),
		NodeKey: node.NodeKey,
		Command: command,
	})
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return nil, err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, failedWithDetail, ui.Error("Backend unreachable.")))
		return nil, err
	}

	v.mu.Lock()
	v.message = ui.Success(fmt.Sprintf("✅ Job submitted successfully!\nJob ID: %d\nCommand: %s", job.ID, job.Command))
	v.banner = "Job running... balance debited!"
	v.mu.Unlock()
	return job, nil
}

func failedWithDetail(e *api.Error) ui.Toast {
	return ui.Error("❌ Failed: " + detailOr(e, e.StatusText()))
}

func (v *Marketplace) setMessage(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = t
}

func (v *Marketplace) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *Marketplace) Render(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.message.Render(w)
	if v.banner != "" {
		fmt.Fprintf(w, "%s\n\n", v.banner)
	}
	if !v.loaded {
		return
	}
	if len(v.nodes) == 0 {
		fmt.Fprintln(w, "No GPUs available right now.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMODEL\tLOCATION\tGPUS\tSTATUS\tPRICE\tLAST ACTIVE\tACTION")
	for _, n := range v.nodes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			n.ID, orDefault(n.GPUModel, "Unnamed GPU"), n.Location, n.GPUCount,
			ui.OnlineStatus(n.IsOnline), marketPrice(n), lastActive(n.LastActive), v.actionLocked(n))
	}
	tw.Flush()
}

func marketPrice(n models.GPUNode) string {
	if n.PricePerHour == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s%.2f / %s", ui.Currency, *n.PricePerHour, orDefault(n.Currency, DefaultCurrency))
}

func lastActive(ts string) string {
	if ts == "" {
		return "N/A"
	}
	return models.LocalTime(ts)
}
