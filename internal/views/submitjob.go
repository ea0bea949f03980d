package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

// SubmitJobForm is the raw input of the standalone submission page.
type SubmitJobForm struct {
	NodeID  string
	NodeKey string
	Command string
}

func (f SubmitJobForm) missing() string {
	switch {
	case strings.TrimSpace(f.NodeID) == "":
		return "node id"
	case strings.TrimSpace(f.NodeKey) == "":
		return "node key"
	case strings.TrimSpace(f.Command) == "":
		return "command"
	}
	return ""
}

type SubmitJob struct {
	env *Env

	mu      sync.Mutex
	message ui.Toast
}

func NewSubmitJob(env *Env) *SubmitJob {
	return &SubmitJob{env: env}
}

func (v *SubmitJob) Title() string {
	return "Submit Job"
}

// Load only checks for a session; the page has nothing to fetch.
func (v *SubmitJob) Load(ctx context.Context) error {
	_, err := v.env.Guard.Require(ctx)
	return err
}

func (v *SubmitJob) Submit(ctx context.Context, form SubmitJobForm) (*models.Job, error) {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return nil, err
	}
	if missing := form.missing(); missing != "" {
		v.setMessage(ui.Error(fmt.Sprintf("❌ %s is required", missing)))
		return nil, ErrInvalidInput
	}

	job, err := v.env.API.SubmitJob(ctx, models.SubmitJobRequest{
		NodeID:  models.CoerceInt(form.NodeID),
		NodeKey: form.NodeKey,
		Command: form.Command,
	})
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return nil, err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + detailOr(e, "Job submission failed."))
		}, ui.Error("🚨 Server not reachable!")))
		return nil, err
	}

	v.setMessage(ui.Success(fmt.Sprintf("✅ Job Submitted Successfully (Job ID: %d)", job.ID)))
	return job, nil
}

func (v *SubmitJob) setMessage(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = t
}

func (v *SubmitJob) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *SubmitJob) Render(w io.Writer) {
	v.Message().Render(w)
}
