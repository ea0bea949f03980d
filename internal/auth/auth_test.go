package auth

import (
	"context"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/session"
)

func newGuard() (*Guard, *session.MemoryStore, *nav.Recorder) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := session.NewMemoryStore()
	rec := &nav.Recorder{}
	return NewGuard(store, rec, logrus.NewEntry(logger)), store, rec
}

func TestRequire(t *testing.T) {
	ctx := context.Background()
	g, store, rec := newGuard()

	_, err := g.Require(ctx)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, nav.Login, rec.Last())

	require.NoError(t, store.Set("tok", "alice"))
	sess, err := g.Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
	assert.Len(t, rec.Pages(), 1)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("passes other errors through", func(t *testing.T) {
		g, store, rec := newGuard()
		require.NoError(t, store.Set("tok", ""))
		other := &api.Error{StatusCode: 403}
		assert.Same(t, other, g.Check(ctx, other))
		assert.NoError(t, g.Check(ctx, nil))
		assert.Empty(t, rec.Pages())
		_, ok := store.Get()
		assert.True(t, ok)
	})

	t.Run("401 clears and redirects", func(t *testing.T) {
		g, store, rec := newGuard()
		require.NoError(t, store.Set("tok", ""))
		err := g.Check(ctx, errors.Wrap(&api.Error{StatusCode: 401}, "loading"))
		assert.ErrorIs(t, err, ErrLoginRequired)
		assert.Equal(t, nav.Login, rec.Last())
		_, ok := store.Get()
		assert.False(t, ok)
	})
}

func TestLogout(t *testing.T) {
	g, store, rec := newGuard()
	require.NoError(t, store.Set("tok", "alice"))
	require.NoError(t, g.Logout(context.Background()))
	_, ok := g.Session()
	assert.False(t, ok)
	assert.Equal(t, []nav.Page{nav.Login}, rec.Pages())
}
