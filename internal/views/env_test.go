package views

import (
	"bytes"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/apitest"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/netutils"
	"github.com/indicompute/indicompute/internal/session"
)

type fixture struct {
	backend *apitest.Backend
	store   *session.MemoryStore
	nav     *nav.Recorder
	env     *Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New(t)
	return newFixtureAt(t, backend, backend.URL())
}

func newFixtureAt(t *testing.T, backend *apitest.Backend, url string) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	log := logrus.NewEntry(logger)

	store := session.NewMemoryStore()
	rec := &nav.Recorder{}
	client := api.NewClient(url, netutils.NewHTTPClient(false, 0), store, log)
	env := NewEnv(client, store, rec, log)
	env.RedirectDelay = 0
	env.PollInterval = 20 * time.Millisecond
	return &fixture{backend: backend, store: store, nav: rec, env: env}
}

// login registers a user and stores its session.
func (f *fixture) login(t *testing.T, username string) models.User {
	t.Helper()
	user, token := f.backend.AddUser(username+" Example", username+"@example.com", username, "secret")
	require.NoError(t, f.store.Set(token, username))
	return user
}

func render(p Page) string {
	var buf bytes.Buffer
	p.Render(&buf)
	return buf.String()
}

func price(p float64) *float64 {
	return &p
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
