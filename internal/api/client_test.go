package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indicompute/indicompute/internal/apitest"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/netutils"
	"github.com/indicompute/indicompute/internal/session"
)

func newTestClient(t *testing.T, baseURL string, store session.Store) *Client {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(baseURL, netutils.NewHTTPClient(false, 0), store, logrus.NewEntry(logger))
}

func TestRequestHeaders(t *testing.T) {
	backend := apitest.New(t)
	user, token := backend.AddUser("Alice", "a@b.com", "alice", "x")
	store := session.NewMemoryStore()
	client := newTestClient(t, backend.URL(), store)
	ctx := context.Background()

	t.Run("no token means no authorization header", func(t *testing.T) {
		_, err := client.Me(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnauthorized)

		reqs := backend.Requests(http.MethodGet, PathMe)
		require.Len(t, reqs, 1)
		assert.Empty(t, reqs[0].Header.Get("Authorization"))
		assert.Empty(t, reqs[0].Header.Get("Content-Type"))
		assert.NotEmpty(t, reqs[0].Header.Get(RequestIDHeader))
	})

	t.Run("stored token is attached", func(t *testing.T) {
		require.NoError(t, store.Set(token, ""))
		me, err := client.Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, user, *me)

		reqs := backend.Requests(http.MethodGet, PathMe)
		assert.Equal(t, "Bearer "+token, reqs[len(reqs)-1].Header.Get("Authorization"))
	})

	t.Run("body sets content type", func(t *testing.T) {
		require.NoError(t, client.TopUp(ctx, 50))
		reqs := backend.Requests(http.MethodPost, PathTopUp)
		require.Len(t, reqs, 1)
		assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
		assert.JSONEq(t, `{"amount":50}`, string(reqs[0].Body))
	})

	t.Run("anonymous listing never sends the token", func(t *testing.T) {
		backend.AddNode(user.ID, models.GPUNode{GPUModel: "A100", GPUCount: 8})
		nodes, err := client.NodeDetails(ctx)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.NotEmpty(t, nodes[0].NodeKey)

		reqs := backend.Requests(http.MethodGet, PathNodeDetails)
		assert.Empty(t, reqs[0].Header.Get("Authorization"))
	})

	t.Run("request ids are unique", func(t *testing.T) {
		all := backend.Requests("", "")
		seen := map[string]bool{}
		for _, r := range all {
			id := r.Header.Get(RequestIDHeader)
			assert.False(t, seen[id], "duplicate request id %s", id)
			seen[id] = true
		}
	})
}

func TestUnauthorizedClearsSession(t *testing.T) {
	backend := apitest.New(t)
	store := session.NewMemoryStore()
	require.NoError(t, store.Set("stale-token", "bob"))
	client := newTestClient(t, backend.URL(), store)

	_, err := client.WalletBalance(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, ok := store.Get()
	assert.False(t, ok, "401 must clear the stored token")
}

func TestAnonymous401KeepsSession(t *testing.T) {
	backend := apitest.New(t)
	backend.Fail(http.MethodGet, PathNodeDetails, http.StatusUnauthorized, `{"detail":"nope"}`)
	store := session.NewMemoryStore()
	require.NoError(t, store.Set("tok", ""))
	client := newTestClient(t, backend.URL(), store)

	_, err := client.NodeDetails(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	_, ok := store.Get()
	assert.True(t, ok)
}

func TestErrorCarriesRawBody(t *testing.T) {
	backend := apitest.New(t)
	backend.Fail(http.MethodPost, PathLogin, http.StatusBadRequest, `{"detail":"Email not verified"}`)
	client := newTestClient(t, backend.URL(), session.NewMemoryStore())

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "x"})
	apiErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, `{"detail":"Email not verified"}`, apiErr.Error())
	assert.Equal(t, "Email not verified", apiErr.Detail())
	assert.Equal(t, "Bad Request", apiErr.StatusText())
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestEmptyErrorBody(t *testing.T) {
	backend := apitest.New(t)
	backend.Fail(http.MethodGet, PathNodeDetails, http.StatusInternalServerError, "")
	client := newTestClient(t, backend.URL(), session.NewMemoryStore())

	_, err := client.NodeDetails(context.Background())
	require.Error(t, err)
	assert.Equal(t, "API Error", err.Error())
}

func TestUnreachable(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", session.NewMemoryStore())
	_, err := client.NodeDetails(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	_, isAPI := AsError(err)
	assert.False(t, isAPI)
}

func TestCancelledRequest(t *testing.T) {
	backend := apitest.New(t)
	backend.Delay(http.MethodGet, PathNodeDetails, 5*time.Second)
	client := newTestClient(t, backend.URL(), session.NewMemoryStore())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.NodeDetails(ctx)
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNonListPayloadIsEmpty(t *testing.T) {
	backend := apitest.New(t)
	_, token := backend.AddUser("Alice", "a@b.com", "alice", "x")
	backend.Fail(http.MethodGet, PathTransactions, http.StatusOK, `{"items":"weird"}`)
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(token, ""))
	client := newTestClient(t, backend.URL(), store)

	txs, err := client.Transactions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestNaNFieldsAreSentAsNull(t *testing.T) {
	backend := apitest.New(t)
	_, token := backend.AddUser("Alice", "a@b.com", "alice", "x")
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(token, ""))
	client := newTestClient(t, backend.URL(), store)

	err := client.RegisterNode(context.Background(), models.RegisterNodeRequest{
		Location:     "Pune",
		GPUModel:     "RTX 4090",
		GPUCount:     models.CoerceNumber("abc"),
		PricePerHour: models.CoerceNumber("40"),
	})
	require.Error(t, err, "backend is the validator")
	assert.Equal(t, http.StatusUnprocessableEntity, StatusCode(err))

	reqs := backend.Requests(http.MethodPost, PathRegisterNode)
	require.Len(t, reqs, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Body, &sent))
	assert.Contains(t, sent, "gpu_count")
	assert.Nil(t, sent["gpu_count"])
	assert.EqualValues(t, 40, sent["price_per_hour"])
}
