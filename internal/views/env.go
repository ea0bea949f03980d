package views

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/auth"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/session"
	"github.com/indicompute/indicompute/internal/ui"
)

var (
	// ErrInvalidInput means an action was refused before any request was made.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoToken means the backend accepted credentials but returned no token.
	ErrNoToken = errors.New("no access token in response")
)

const (
	DefaultRedirectDelay = time.Second
	DefaultPollInterval  = 15 * time.Second
	DefaultCurrency      = "INR"
)

// Env is what every page is built from. It is created once per process.
type Env struct {
	API     *api.Client
	Session session.Store
	Guard   *auth.Guard
	Nav     nav.Navigator
	Log     *logrus.Entry

	RedirectDelay time.Duration
	PollInterval  time.Duration
	Currency      string
	Now           func() time.Time
}

func NewEnv(client *api.Client, store session.Store, navigator nav.Navigator, log *logrus.Entry) *Env {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Env{
		API:           client,
		Session:       store,
		Guard:         auth.NewGuard(store, navigator, log),
		Nav:           navigator,
		Log:           log.WithField("component", "views"),
		RedirectDelay: DefaultRedirectDelay,
		PollInterval:  DefaultPollInterval,
		Currency:      DefaultCurrency,
		Now:           time.Now,
	}
}

// redirectAfterDelay waits out the redirect delay and navigates. The wait is
// cosmetic and ends early if ctx does.
func (e *Env) redirectAfterDelay(ctx context.Context, to nav.Page) error {
	t := time.NewTimer(e.RedirectDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	e.Nav.Navigate(ctx, to)
	return nil
}

// failure turns a failed action into the notice shown to the user. Backend
// rejections go through onAPI; anything else is reported as unreachable.
func (e *Env) failure(err error, onAPI func(*api.Error) ui.Toast, unreachable ui.Toast) ui.Toast {
	if apiErr, ok := api.AsError(err); ok {
		return onAPI(apiErr)
	}
	e.Log.WithError(err).Warn("request failed")
	return unreachable
}

func detailOr(apiErr *api.Error, fallback string) string {
	if d := apiErr.Detail(); d != "" {
		return d
	}
	return fallback
}

// firstUnauthorized returns the first 401 among errs, else the first error.
func firstUnauthorized(errs ...error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		if first == nil {
			first = err
		}
	}
	return first
}

func isLoginRequired(err error) bool {
	return errors.Is(err, auth.ErrLoginRequired)
}
