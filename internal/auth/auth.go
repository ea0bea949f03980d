package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/session"
)

// ErrLoginRequired is returned once the user has been sent to the login page.
var ErrLoginRequired = errors.New("login required")

// Guard applies one policy to every protected page: without a session, or
// after any 401, the session is dropped and the user is sent to Login.
type Guard struct {
	store session.Store
	nav   nav.Navigator
	log   *logrus.Entry
}

func NewGuard(store session.Store, navigator nav.Navigator, log *logrus.Entry) *Guard {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Guard{
		store: store,
		nav:   navigator,
		log:   log.WithField("component", "auth"),
	}
}

// Require returns the current session, or redirects and returns
// ErrLoginRequired when there is none. No request is made in that case.
func (g *Guard) Require(ctx context.Context) (session.Session, error) {
	sess, ok := g.store.Get()
	if !ok {
		g.log.Debug("no session, redirecting to login")
		g.nav.Navigate(ctx, nav.Login)
		return session.Session{}, ErrLoginRequired
	}
	return sess, nil
}

// Check passes err through unless it is a 401, in which case the session is
// cleared, the user is redirected and ErrLoginRequired is returned.
func (g *Guard) Check(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	g.log.Info("session rejected by backend, redirecting to login")
	if clearErr := g.store.Clear(); clearErr != nil {
		g.log.WithError(clearErr).Warn("clearing session")
	}
	g.nav.Navigate(ctx, nav.Login)
	return ErrLoginRequired
}

// Logout drops the session and returns to the login page.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.store.Clear(); err != nil {
		return errors.Wrap(err, "clearing session")
	}
	g.nav.Navigate(ctx, nav.Login)
	return nil
}

// Session reports the stored session without redirecting.
func (g *Guard) Session() (session.Session, bool) {
	return g.store.Get()
}
