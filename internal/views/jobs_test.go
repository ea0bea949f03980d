package views

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
)

func TestJobsEmpty(t *testing.T) {
	f := newFixture(t)
	f.login(t, "bob")

	v := NewJobs(f.env)
	require.NoError(t, v.Load(context.Background()))
	assert.Contains(t, render(v), "No jobs submitted yet.")
}

func TestJobsLoadFailure(t *testing.T) {
	f := newFixture(t)
	f.login(t, "bob")
	f.backend.Fail(http.MethodGet, api.PathUserJobs, http.StatusInternalServerError, ``)

	v := NewJobs(f.env)
	require.Error(t, v.Load(context.Background()))
	assert.Equal(t, "⚠️ Failed to load jobs", v.Message().Message)
	assert.NotContains(t, render(v), "No jobs submitted yet.")
}

func TestJobsSubmitResolvesNodeKey(t *testing.T) {
	f := newFixture(t)
	bob := f.login(t, "bob")
	f.backend.SetBalance(bob.ID, 10)
	node := f.backend.AddNode(77, models.GPUNode{GPUModel: "A100"})
	ctx := context.Background()

	v := NewJobs(f.env)
	require.NoError(t, v.Load(ctx))

	job, err := v.Submit(ctx, JobRequest{NodeID: node.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultJobCommand, job.Command)
	assert.Equal(t, fmt.Sprintf("✅ Job submitted successfully! ID: %d", job.ID), v.Message().Message)

	reqs := f.backend.Requests(http.MethodPost, api.PathSubmitJob)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, fmt.Sprintf(`{"node_id":%d,"node_key":%q,"command":"train.py"}`, node.ID, node.NodeKey), string(reqs[0].Body))

	require.Len(t, v.List(), 1, "list is re-fetched")
	assert.Equal(t, 2, f.backend.Count(http.MethodGet, api.PathUserJobs))
	assert.Contains(t, render(v), fmt.Sprintf("indicompute jobs complete %d", job.ID))
}

func TestJobsSubmitWithExplicitKey(t *testing.T) {
	f := newFixture(t)
	f.login(t, "bob")
	node := f.backend.AddNode(77, models.GPUNode{GPUModel: "A100"})

	v := NewJobs(f.env)
	_, err := v.Submit(context.Background(), JobRequest{NodeID: node.ID, NodeKey: node.NodeKey, Command: "infer.py"})
	require.NoError(t, err)
	assert.Zero(t, f.backend.Count(http.MethodGet, api.PathNodeDetails))
}

func TestJobsSubmitFailures(t *testing.T) {
	f := newFixture(t)
	f.login(t, "bob")
	keyless := f.backend.AddNode(77, models.GPUNode{GPUModel: "A100"})
	f.backend.StripNodeKey(keyless.ID)
	ctx := context.Background()
	v := NewJobs(f.env)

	_, err := v.Submit(ctx, JobRequest{NodeID: 999})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Node not found.", v.Message().Message)

	_, err = v.Submit(ctx, JobRequest{NodeID: keyless.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Node key not available for this node.", v.Message().Message)

	_, err = v.Submit(ctx, JobRequest{NodeID: keyless.ID, NodeKey: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "❌ Invalid node key", v.Message().Message)

	f.backend.Fail(http.MethodPost, api.PathSubmitJob, http.StatusInternalServerError, ``)
	_, err = v.Submit(ctx, JobRequest{NodeID: keyless.ID, NodeKey: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "❌ Job submission failed", v.Message().Message)
}

func TestJobsSubmitUnreachable(t *testing.T) {
	f := newFixtureAt(t, nil, "http://127.0.0.1:1")
	require.NoError(t, f.store.Set("tok", ""))

	v := NewJobs(f.env)
	_, err := v.Submit(context.Background(), JobRequest{NodeID: 1, NodeKey: "k"})
	require.Error(t, err)
	assert.Equal(t, "⚠️ Backend not reachable", v.Message().Message)
}

func TestJobsComplete(t *testing.T) {
	f := newFixture(t)
	bob := f.login(t, "bob")
	f.backend.SetBalance(bob.ID, 100)
	owner, _ := f.backend.AddUser("Owner", "owner@example.com", "owner", "pw")
	node := f.backend.AddNode(owner.ID, models.GPUNode{GPUModel: "A100", PricePerHour: price(40)})
	ctx := context.Background()

	v := NewJobs(f.env)
	job, err := v.Submit(ctx, JobRequest{NodeID: node.ID, NodeKey: node.NodeKey, Command: "train.py"})
	require.NoError(t, err)

	require.NoError(t, v.Complete(ctx, job.ID))
	assert.Equal(t, fmt.Sprintf("✅ Job #%d marked completed & owner credited!", job.ID), v.Message().Message)
	assert.Equal(t, 40.0, f.backend.Balance(owner.ID))
	require.Len(t, v.List(), 1)
	assert.True(t, v.List()[0].Completed())
	assert.NotContains(t, render(v), "jobs complete")

	err = v.Complete(ctx, job.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, fmt.Sprintf("Job #%d is already completed.", job.ID), v.Message().Message)

	err = v.Complete(ctx, 4242)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Job #4242 not found.", v.Message().Message)

	assert.Equal(t, 1, f.backend.Count(http.MethodPost, fmt.Sprintf(api.PathSimulateFinish, job.ID)))
}

func TestJobsCompleteRejected(t *testing.T) {
	f := newFixture(t)
	bob := f.login(t, "bob")
	job := f.backend.AddJob(bob.ID, models.Job{Command: "train.py", Status: "running"})
	ctx := context.Background()

	v := NewJobs(f.env)
	require.NoError(t, v.Load(ctx))

	f.backend.Fail(http.MethodPost, fmt.Sprintf(api.PathSimulateFinish, job.ID), http.StatusBadRequest, `{"detail":"Job already completed"}`)
	require.Error(t, v.Complete(ctx, job.ID))
	assert.Equal(t, "❌ Job already completed", v.Message().Message)

	f.backend.Fail(http.MethodPost, fmt.Sprintf(api.PathSimulateFinish, job.ID), http.StatusInternalServerError, ``)
	require.Error(t, v.Complete(ctx, job.ID))
	assert.Equal(t, "❌ Failed to complete job", v.Message().Message)
}

func TestSubmitJobPage(t *testing.T) {
	f := newFixture(t)
	bob := f.login(t, "bob")
	f.backend.SetBalance(bob.ID, 5)
	node := f.backend.AddNode(77, models.GPUNode{GPUModel: "A100"})
	ctx := context.Background()

	v := NewSubmitJob(f.env)
	require.NoError(t, v.Load(ctx))

	job, err := v.Submit(ctx, SubmitJobForm{NodeID: itoa(node.ID) + "abc", NodeKey: node.NodeKey, Command: "run.sh"})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("✅ Job Submitted Successfully (Job ID: %d)", job.ID), v.Message().Message)

	reqs := f.backend.Requests(http.MethodPost, api.PathSubmitJob)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, fmt.Sprintf(`{"node_id":%d,"node_key":%q,"command":"run.sh"}`, node.ID, node.NodeKey), string(reqs[0].Body))

	t.Run("rejected", func(t *testing.T) {
		_, err := v.Submit(ctx, SubmitJobForm{NodeID: itoa(node.ID), NodeKey: "nope", Command: "run.sh"})
		require.Error(t, err)
		assert.Equal(t, "❌ Invalid node key", v.Message().Message)
	})

	t.Run("no detail", func(t *testing.T) {
		f.backend.Fail(http.MethodPost, api.PathSubmitJob, http.StatusInternalServerError, ``)
		defer f.backend.Recover(http.MethodPost, api.PathSubmitJob)
		_, err := v.Submit(ctx, SubmitJobForm{NodeID: "1", NodeKey: "k", Command: "run.sh"})
		require.Error(t, err)
		assert.Equal(t, "❌ Job submission failed.", v.Message().Message)
	})

	t.Run("required fields", func(t *testing.T) {
		before := f.backend.Count(http.MethodPost, api.PathSubmitJob)
		_, err := v.Submit(ctx, SubmitJobForm{NodeID: "1", Command: "run.sh"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, before, f.backend.Count(http.MethodPost, api.PathSubmitJob))
	})
}

func TestSubmitJobPageUnreachable(t *testing.T) {
	f := newFixtureAt(t, nil, "http://127.0.0.1:1")
	require.NoError(t, f.store.Set("tok", ""))

	v := NewSubmitJob(f.env)
	_, err := v.Submit(context.Background(), SubmitJobForm{NodeID: "1", NodeKey: "k", Command: "x"})
	require.Error(t, err)
	assert.Equal(t, "🚨 Server not reachable!", v.Message().Message)
}
