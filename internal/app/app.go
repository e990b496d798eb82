// Package app owns the client lifecycle: the session, the API client, the
// cart and order state, and the push channel. The push connection is an
// explicitly owned handle created on login and destroyed on logout, never
// ambient global state; authorization failures surface here as an explicit
// signed-out transition rather than a hidden redirect inside the network
// layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/quickplate/ordering-client/internal/api"
	"github.com/quickplate/ordering-client/internal/config"
	"github.com/quickplate/ordering-client/internal/metrics"
	"github.com/quickplate/ordering-client/internal/push"
	"github.com/quickplate/ordering-client/internal/session"
	"github.com/quickplate/ordering-client/internal/state"
	"github.com/quickplate/ordering-client/internal/validate"
	"github.com/quickplate/ordering-client/pkg/logger"
)

// Notice is a user-facing notification (the toast equivalent).
type Notice struct {
	Title string
	Body  string
}

// Hooks are the callbacks the front end registers. All are optional.
type Hooks struct {
	// OnSignedOut fires when the session ends, either by logout or by an
	// authorization failure. The front end decides where to navigate.
	OnSignedOut func(reason string)
	// OnNotice fires for dismissible notifications.
	OnNotice func(Notice)
	// OnPushState fires as the live-update channel connects or drops.
	OnPushState func(connected bool, err error)
}

// App wires the client together.
type App struct {
	cfg      *config.Config
	log      *logger.Logger
	sessions *session.Store
	API      *api.Client
	Menu     *state.Menu
	Cart     *state.Cart
	Orders   *state.Orders
	hooks    Hooks

	mu      sync.Mutex
	current *session.Session
	pushCli *push.Client
	pushCtx context.CancelFunc
}

// New builds the application. If a persisted session exists it is restored
// and the push channel is opened for it.
func New(cfg *config.Config, hooks Hooks, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	sessionPath := cfg.SessionFile
	if sessionPath == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		sessionPath = p
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		sessions: session.NewStore(sessionPath),
		hooks:    hooks,
	}

	client, err := api.New(api.Config{
		BaseURL: cfg.APIURL,
		Token:   a.currentToken,
		Logger:  log.WithField("component", "api"),
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	a.API = client
	a.Menu = state.NewMenu(client, log)
	a.Cart = state.NewCart(client, a.Authenticated, log)
	a.Orders = state.NewOrders(client, a.Authenticated, log)

	if sess, err := a.sessions.Load(); err == nil {
		if sess.Expired() {
			// Stale token; drop it rather than issue calls doomed to 401.
			_ = a.sessions.Clear()
		} else {
			a.mu.Lock()
			a.current = &sess
			a.mu.Unlock()
			a.openPush(sess.User.ID)
		}
	}

	return a, nil
}

// Authenticated reports whether a session is active.
func (a *App) Authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// CurrentUser returns the active profile.
func (a *App) CurrentUser() (session.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return session.User{}, false
	}
	return a.current.User, true
}

// Register creates an account after validating the form locally.
func (a *App) Register(ctx context.Context, name, email, password, confirmPassword, phone string) error {
	if err := validate.SignUp(name, email, password, confirmPassword); err != nil {
		return err
	}
	_, err := a.API.Register(ctx, api.RegisterRequest{
		Name:        name,
		Email:       email,
		Password:    password,
		PhoneNumber: phone,
	})
	return a.checkAuth(err)
}

// Login authenticates, persists the session, and opens the push channel.
func (a *App) Login(ctx context.Context, email, password string) error {
	if err := validate.SignIn(email, password); err != nil {
		return err
	}

	resp, err := a.API.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	sess := session.Session{Token: resp.Token, User: resp.User}
	if err := a.sessions.Save(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	// Re-read so the stored device id lands on the in-memory copy.
	stored, err := a.sessions.Load()
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}

	a.mu.Lock()
	a.current = &stored
	a.mu.Unlock()

	a.openPush(stored.User.ID)
	return nil
}

// Logout ends the session: the push channel closes, caches reset, and the
// persisted token is removed.
func (a *App) Logout() error {
	a.signOut("logged out")
	return nil
}

// Close releases all resources on app teardown without ending the persisted
// session.
func (a *App) Close() {
	a.closePush()
}

// CheckAuth inspects an operation error and, on an authorization failure,
// performs the one session-fatal transition: clear everything and notify the
// front end. All other errors pass through untouched.
func (a *App) CheckAuth(err error) error {
	return a.checkAuth(err)
}

func (a *App) checkAuth(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrUnauthenticated) {
		a.signOut("session expired")
	}
	return err
}

func (a *App) signOut(reason string) {
	a.mu.Lock()
	wasActive := a.current != nil
	a.current = nil
	a.mu.Unlock()

	a.closePush()
	a.Cart.Reset()
	a.Orders.Reset()
	if err := a.sessions.Clear(); err != nil {
		a.log.WithError(err).Warn("clearing session file failed")
	}

	if wasActive && a.hooks.OnSignedOut != nil {
		a.hooks.OnSignedOut(reason)
	}
}

// openPush creates and starts the live-update channel for the user. Create
// is gated on identity: calling it again while a connection exists for the
// same session is a no-op.
func (a *App) openPush(userID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pushCli != nil {
		return
	}

	cli, err := push.New(push.Config{
		URL:    a.cfg.APIURL,
		UserID: userID,
		Logger: a.log.WithField("component", "push"),
		OnStateChange: func(connected bool, err error) {
			if a.hooks.OnPushState != nil {
				a.hooks.OnPushState(connected, err)
			}
		},
	})
	if err != nil {
		// Non-fatal: polling keeps order tracking correct.
		a.log.WithError(err).Warn("push channel unavailable")
		return
	}

	cli.Subscribe(func(update push.StatusUpdate) {
		a.Orders.HandlePush(update)
		if a.hooks.OnNotice != nil {
			body := update.Message
			if body == "" {
				body = "Status updated to: " + update.Status
			}
			a.hooks.OnNotice(Notice{
				Title: fmt.Sprintf("Order #%d", int64(update.OrderID)),
				Body:  body,
			})
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cli.Start(ctx)
	a.pushCli = cli
	a.pushCtx = cancel
}

func (a *App) closePush() {
	a.mu.Lock()
	cli := a.pushCli
	cancel := a.pushCtx
	a.pushCli = nil
	a.pushCtx = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cli != nil {
		cli.Close()
	}
}

func (a *App) currentToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return ""
	}
	return a.current.Token
}

// ServeDebug serves /metrics and /healthz on addr until the listener fails.
// Intended to run in its own goroutine.
func (a *App) ServeDebug(addr string) error {
	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
