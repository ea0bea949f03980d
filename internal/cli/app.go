package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/auth"
	"github.com/indicompute/indicompute/internal/config"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/netutils"
	"github.com/indicompute/indicompute/internal/session"
	"github.com/indicompute/indicompute/internal/ui"
	"github.com/indicompute/indicompute/internal/views"
)

// maxRedirects bounds how many queued navigations one command may follow.
const maxRedirects = 4

const clearScreen = "\033[H\033[2J"

// reportedError marks an error whose outcome was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// Reported tells whether err has already been presented and only needs a
// non-zero exit status.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// App holds what every command shares. It is built once the flags are parsed.
type App struct {
	v          *viper.Viper
	configPath string

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	tty    bool

	cfg    *config.CLIConfig
	log    *logrus.Logger
	store  *session.FileStore
	router *router
	prompt *prompter
	env    *views.Env
}

func newApp(in io.Reader, out, errOut io.Writer) *App {
	a := &App{
		v:      config.New(),
		in:     in,
		out:    out,
		errOut: errOut,
		router: &router{},
	}
	if f, ok := out.(*os.File); ok {
		a.tty = term.IsTerminal(int(f.Fd()))
	}
	return a
}

// setup resolves the configuration and wires the session store, API client
// and page environment.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = logrus.New()
	a.log.SetOutput(a.errOut)
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !a.tty})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", cfg.LogLevel)
	}
	a.log.SetLevel(level)
	entry := a.log.WithField("component", "cli")

	a.store = session.NewFileStore(cfg.SessionFile)
	client := api.NewClient(cfg.APIURL, netutils.NewHTTPClient(cfg.Insecure, cfg.RequestTimeout), a.store, logrus.NewEntry(a.log))

	a.env = views.NewEnv(client, a.store, a.router, logrus.NewEntry(a.log))
	a.env.PollInterval = cfg.PollInterval
	a.env.RedirectDelay = cfg.RedirectDelay
	a.env.Currency = cfg.Currency
	a.prompt = newPrompter(a.in, a.errOut)

	entry.WithFields(logrus.Fields{
		"command": cmd.CommandPath(),
		"api":     cfg.APIURL,
		"session": cfg.SessionFile,
	}).Debug("configured")
	return nil
}

// run wraps a command body: once it returns, queued navigations are opened
// and login redirects become a reported failure.
func (a *App) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		err := fn(ctx, args)
		if ferr := a.follow(ctx); err == nil {
			err = ferr
		}
		if errors.Is(err, auth.ErrLoginRequired) {
			return reported(err)
		}
		return err
	}
}

func (a *App) follow(ctx context.Context) error {
	var loginErr error
	for i := 0; i < maxRedirects; i++ {
		to, ok := a.router.next()
		if !ok {
			return loginErr
		}
		a.log.WithField("page", to).Debug("navigating")
		if err := a.open(ctx, to); err != nil {
			if !errors.Is(err, auth.ErrLoginRequired) {
				return err
			}
			loginErr = err
		}
	}
	return errors.New("too many redirects")
}

// open shows a page reached by navigation.
func (a *App) open(ctx context.Context, to nav.Page) error {
	switch to {
	case nav.Login:
		a.frame("Login", func(w io.Writer) {
			fmt.Fprintln(w, "🔒 You are not logged in.")
			ui.Links(w, []ui.Link{
				{Label: "Login", Command: "indicompute login"},
				{Label: "Sign up", Command: "indicompute signup"},
			})
		})
		return nil
	case nav.Signup:
		a.frame("Create your account", func(w io.Writer) {
			ui.Links(w, []ui.Link{{Label: "Sign up", Command: "indicompute signup"}})
		})
		return nil
	}

	p := a.page(to)
	if p == nil {
		return errors.Errorf("no page for %s", to)
	}
	return a.load(ctx, p)
}

func (a *App) page(to nav.Page) views.Page {
	switch to {
	case nav.Home:
		return views.NewHome()
	case nav.Dashboard:
		return views.NewDashboard(a.env)
	case nav.Nodes:
		return views.NewNodes(a.env)
	case nav.Marketplace:
		return views.NewMarketplace(a.env)
	case nav.Jobs:
		return views.NewJobs(a.env)
	case nav.SubmitJob:
		return views.NewSubmitJob(a.env)
	case nav.Wallet:
		return views.NewWallet(a.env)
	}
	return nil
}

// load fetches and shows p. A failed load is still shown, with its notice.
func (a *App) load(ctx context.Context, p views.Page) error {
	err := p.Load(ctx)
	if errors.Is(err, auth.ErrLoginRequired) {
		return err
	}
	a.show(p)
	return reported(err)
}

// watch keeps p on screen, refreshing it until ctx ends.
func (a *App) watch(ctx context.Context, p views.Page) error {
	return views.Watch(ctx, a.env, p, a.redraw)
}

func (a *App) redraw(p views.Page) {
	if a.tty {
		fmt.Fprint(a.out, clearScreen)
	} else {
		fmt.Fprintf(a.out, "\n--- %s ---\n", a.env.Now().Format(time.TimeOnly))
	}
	a.show(p)
}

func (a *App) show(p views.Page) {
	a.frame(p.Title(), p.Render)
}

// frame draws body inside the application shell.
func (a *App) frame(title string, body func(io.Writer)) {
	ui.Header(a.out, title)
	body(a.out)
	ui.Footer(a.out, a.env.Now())
}
