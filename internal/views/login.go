package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/nav"
	"github.com/indicompute/indicompute/internal/ui"
)

// authForm is the shared state of the login and signup pages: a notice and
// the page to go to once the session is stored.
type authForm struct {
	env *Env

	mu       sync.Mutex
	message  ui.Toast
	redirect nav.Page
}

func (f *authForm) setMessage(t ui.Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = t
}

func (f *authForm) Message() ui.Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// PendingRedirect is the page Redirect will go to, or "" when the last
// submission did not produce a session.
func (f *authForm) PendingRedirect() nav.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirect
}

// Redirect waits the redirect delay and leaves the page if the last submission
// stored a session. It does nothing otherwise.
func (f *authForm) Redirect(ctx context.Context) error {
	f.mu.Lock()
	to := f.redirect
	f.redirect = ""
	f.mu.Unlock()

	if to == "" {
		return nil
	}
	return f.env.redirectAfterDelay(ctx, to)
}

func (f *authForm) Render(w io.Writer) {
	f.Message().Render(w)
}

// accept stores the token from a successful submission and schedules the
// redirect. A response without a token stores nothing.
func (f *authForm) accept(resp *models.TokenResponse, username string, success, missing string, to nav.Page) error {
	if resp.AccessToken == "" {
		f.setMessage(ui.Warning(missing))
		return ErrNoToken
	}
	if err := f.env.Session.Set(resp.AccessToken, username); err != nil {
		f.setMessage(ui.Error("❌ Could not save session: " + err.Error()))
		return errors.Wrap(err, "saving session")
	}

	f.mu.Lock()
	f.message = ui.Success(success)
	f.redirect = to
	f.mu.Unlock()
	return nil
}

type Login struct {
	authForm
}

func NewLogin(env *Env) *Login {
	return &Login{authForm{env: env}}
}

func (v *Login) Title() string {
	return "Login"
}

// Submit exchanges credentials for a session. On success the session is
// stored and Redirect will move to the dashboard.
func (v *Login) Submit(ctx context.Context, email, password string) error {
	v.setMessage(ui.Toast{})
	if strings.TrimSpace(email) == "" || password == "" {
		v.setMessage(ui.Error("❌ Email and password are required."))
		return ErrInvalidInput
	}

	resp, err := v.env.API.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + detailOr(e, "Invalid credentials"))
		}, ui.Warning("⚠️ Server not reachable. Please check backend.")))
		return err
	}
	return v.accept(resp, "", "✅ Login successful! Redirecting...", "⚠️ Login succeeded but token missing.", nav.Dashboard)
}

type SignupForm struct {
	FullName string
	Email    string
	Username string
	Password string
}

type Signup struct {
	authForm
}

func NewSignup(env *Env) *Signup {
	return &Signup{authForm{env: env}}
}

func (v *Signup) Title() string {
	return "Create your account"
}

// Submit creates an account. On success the token and username are stored
// and Redirect will move to the wallet.
func (v *Signup) Submit(ctx context.Context, form SignupForm) error {
	v.setMessage(ui.Toast{})
	if missing := form.missing(); missing != "" {
		v.setMessage(ui.Error(fmt.Sprintf("❌ Error: %s is required", missing)))
		return ErrInvalidInput
	}

	resp, err := v.env.API.Signup(ctx, models.SignupRequest{
		FullName: form.FullName,
		Email:    form.Email,
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ Error: " + detailOr(e, "Signup failed"))
		}, ui.Warning("⚠️ Server not reachable (check backend).")))
		return err
	}
	return v.accept(resp, form.Username, "✅ Signup successful! Redirecting...", "⚠️ Signup successful but token missing.", nav.Wallet)
}

func (f SignupForm) missing() string {
	switch {
	case strings.TrimSpace(f.FullName) == "":
		return "full name"
	case strings.TrimSpace(f.Email) == "":
		return "email"
	case strings.TrimSpace(f.Username) == "":
		return "username"
	case f.Password == "":
		return "password"
	}
	return ""
}
