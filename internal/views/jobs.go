package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

const DefaultJobCommand = "train.py"

// JobRequest selects the node a job runs on. NodeKey may be left empty to
// look it up in the public listing.
type JobRequest struct {
	NodeID  int64
	NodeKey string
	Command string
}

type Jobs struct {
	env *Env

	mu      sync.Mutex
	loaded  bool
	jobs    []models.Job
	message ui.Toast
}

func NewJobs(env *Env) *Jobs {
	return &Jobs{env: env}
}

func (v *Jobs) Title() string {
	return "My Jobs"
}

func (v *Jobs) Load(ctx context.Context) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	jobs, err := v.env.API.UserJobs(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.env.Log.WithError(err).Warn("loading jobs")
		v.loaded = false
		v.jobs = nil
		v.message = ui.Warning("⚠️ Failed to load jobs")
		return err
	}
	v.loaded = true
	v.jobs = jobs
	return nil
}

// Submit sends a job and reloads the list.
func (v *Jobs) Submit(ctx context.Context, req JobRequest) (*models.Job, error) {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Command) == "" {
		req.Command = DefaultJobCommand
	}

	if req.NodeKey == "" {
		key, err := v.resolveNodeKey(ctx, req.NodeID)
		if err != nil {
			return nil, err
		}
		req.NodeKey = key
	}

	job, err := v.env.API.SubmitJob(ctx, models.SubmitJobRequest{
		NodeID:  models.Number(req.NodeID),
		NodeKey: req.NodeKey,
		Command: req.Command,
	})
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return nil, err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + detailOr(e, "Job submission failed"))
		}, ui.Warning("⚠️ Backend not reachable")))
		return nil, err
	}

	if err := v.Load(ctx); isLoginRequired(err) {
		return nil, err
	}
	v.setMessage(ui.Success(fmt.Sprintf("✅ Job submitted successfully! ID: %d", job.ID)))
	return job, nil
}

func (v *Jobs) resolveNodeKey(ctx context.Context, nodeID int64) (string, error) {
	nodes, err := v.env.API.NodeDetails(ctx)
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + detailOr(e, "Job submission failed"))
		}, ui.Warning("⚠️ Backend not reachable")))
		return "", err
	}
	for _, n := range nodes {
		if n.ID != nodeID {
			continue
		}
		if n.NodeKey == "" {
			v.setMessage(ui.Error("Node key not available for this node."))
			return "", ErrInvalidInput
		}
		return n.NodeKey, nil
	}
	v.setMessage(ui.Error("Node not found."))
	return "", ErrInvalidInput
}

// Complete triggers the backend's completion of a job shown in the list.
func (v *Jobs) Complete(ctx context.Context, jobID int64) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	job, ok := v.job(jobID)
	switch {
	case !ok:
		v.setMessage(ui.Error(fmt.Sprintf("Job #%d not found.", jobID)))
		return ErrInvalidInput
	case job.Completed():
		v.setMessage(ui.Info(fmt.Sprintf("Job #%d is already completed.", jobID)))
		return ErrInvalidInput
	}

	_, err := v.env.API.SimulateJobComplete(ctx, jobID)
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + detailOr(e, "Failed to complete job"))
		}, ui.Warning("⚠️ Server not reachable")))
		return err
	}

	if err := v.Load(ctx); isLoginRequired(err) {
		return err
	}
	v.setMessage(ui.Success(fmt.Sprintf("✅ Job #%d marked completed & owner credited!", jobID)))
	return nil
}

func (v *Jobs) job(id int64) (models.Job, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, j := range v.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return models.Job{}, false
}

func (v *Jobs) List() []models.Job {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Job(nil), v.jobs...)
}

func (v *Jobs) setMessage(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = t
}

func (v *Jobs) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *Jobs) Render(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.message.Render(w)
	if !v.loaded {
		return
	}
	if len(v.jobs) == 0 {
		fmt.Fprintln(w, "No jobs submitted yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMMAND\tSTATUS\tACTION")
	for _, j := range v.jobs {
		action := ""
		if !j.Completed() {
			action = fmt.Sprintf("indicompute jobs complete %d", j.ID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", j.ID, j.Command, j.Status, action)
	}
	tw.Flush()
}
