package chrome

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
)

// Engine owns the single connection to the headless Chrome process for the
// life of the service instance. Requests never own it; they borrow isolated
// browsing contexts through Checkout and must close them when done.
type Engine struct {
	cfg config.Config

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	profileDir    string
	started       bool
	closed        bool
	restarts      int
	lastRestart   time.Time

	// checkoutMu serializes browsing-context creation only. It is never
	// held across a render.
	checkoutMu sync.Mutex

	live atomic.Int64
}

// Stats is a point-in-time snapshot of engine state, exposed for observability.
type Stats struct {
	Connected    bool      `json:"connected"`
	LiveContexts int64     `json:"live_contexts"`
	Restarts     int       `json:"restarts"`
	LastRestart  time.Time `json:"last_restart,omitempty"`
	ProfileDir   string    `json:"profile_dir"`
}

// NewEngine prepares an engine for the given configuration. The browser is
// not launched until Start is called.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// createProfileDir creates a fresh user-data dir for a browser launch so
// profiles never collide between instances or across restarts.
func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.PDF.UserDataDir
	if base == "" {
		return os.MkdirTemp("", "chromedata-*")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("cannot create user data base dir: %w", err)
	}
	return os.MkdirTemp(base, "chromedata-*")
}

func allocatorOptions(cfg config.Config, profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal
		// container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if cfg.PDF.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.PDF.ChromePath))
	}
	if cfg.PDF.ChromeNoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	// Bound how long the allocator waits for the DevTools endpoint so a
	// wedged Chrome install fails startup instead of hanging.
	if cfg.PDF.StartupTimeoutSecs > 0 {
		opts = append(opts, chromedp.WSURLReadTimeout(cfg.StartupTimeout()))
	}
	return opts
}

// Start launches the browser and blocks until the DevTools connection is
// established or ctx expires. The service must not become ready if Start
// fails; there is no degraded mode without a browser.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return nil
	}
	if err := e.launchLocked(ctx); err != nil {
		return err
	}
	e.started = true
	return nil
}

// launchLocked spawns a browser and waits for its DevTools endpoint.
// Callers hold e.mu.
func (e *Engine) launchLocked(ctx context.Context) error {
	profileDir, err := createProfileDir(e.cfg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.RemoveAll(profileDir)
		return fmt.Errorf("browser did not come up in time: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(e.cfg, profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run establishes the DevTools websocket. The Chrome process
	// and its connection stay bound to this context for the browser's whole
	// life, so it must not run under a cancellable wrapper; launch time is
	// bounded by the allocator's WSURLReadTimeout instead.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		_ = os.RemoveAll(profileDir)
		return fmt.Errorf("cannot launch browser: %w", err)
	}

	e.allocCancel = allocCancel
	e.browserCtx = browserCtx
	e.browserCancel = browserCancel
	e.profileDir = profileDir
	return nil
}

// Stop tears down the browser connection. Safe to call more than once and
// during shutdown while requests are still in flight; their contexts are
// cancelled along with the browser.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.teardownLocked()
}

func (e *Engine) teardownLocked() {
	if e.browserCancel != nil {
		e.browserCancel()
		e.browserCancel = nil
	}
	if e.allocCancel != nil {
		e.allocCancel()
		e.allocCancel = nil
	}
	e.browserCtx = nil
	if e.profileDir != "" {
		if err := os.RemoveAll(e.profileDir); err != nil {
			logging.Warn("Failed to remove browser profile dir", "dir", e.profileDir, "error", err)
		}
		e.profileDir = ""
	}
}

// Restart replaces a dead or wedged browser with a fresh one. In-flight
// contexts on the old browser are cancelled. Returns an error after Stop.
func (e *Engine) Restart() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	e.teardownLocked()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StartupTimeout())
	defer cancel()
	if err := e.launchLocked(ctx); err != nil {
		return err
	}
	e.restarts++
	e.lastRestart = time.Now()
	logging.Warn("Browser restarted", "restarts", e.restarts)
	return nil
}

// Checkout creates a fresh isolated browsing context (no shared cookies,
// cache or storage with any other context) and returns a Tab bound to it.
// The caller must Close the Tab on every exit path. Safe for concurrent use;
// only the CDP creation calls are serialized.
func (e *Engine) Checkout(ctx context.Context) (*Tab, error) {
	e.mu.Lock()
	browserCtx := e.browserCtx
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return nil, ErrEngineClosed
	}
	if browserCtx == nil || browserCtx.Err() != nil {
		return nil, ErrEngineDown
	}

	e.checkoutMu.Lock()
	defer e.checkoutMu.Unlock()

	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Browser == nil {
		return nil, ErrEngineDown
	}

	runCtx, cancel := context.WithCancel(browserCtx)
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	defer cancel()

	// Target.createBrowserContext and Target.createTarget are browser-level
	// commands; Chrome rejects them on a page session, so they go through
	// the browser executor.
	ectx := cdp.WithExecutor(runCtx, c.Browser)
	bctxID, err := target.CreateBrowserContext().WithDisposeOnDetach(true).Do(ectx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("cannot create browsing context: %w", err)
	}
	targetID, err := target.CreateTarget("about:blank").WithBrowserContextID(bctxID).Do(ectx)
	if err != nil {
		e.disposeContext(bctxID)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("cannot create browsing context: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(targetID))
	e.live.Add(1)
	return &Tab{engine: e, ctx: tabCtx, cancel: tabCancel, bctxID: bctxID}, nil
}

// disposeContext destroys an isolated browsing context in the browser. Best
// effort: a browser that already went away took its contexts with it.
func (e *Engine) disposeContext(id cdp.BrowserContextID) {
	e.mu.Lock()
	browserCtx := e.browserCtx
	e.mu.Unlock()

	if browserCtx == nil || browserCtx.Err() != nil {
		return
	}
	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Browser == nil {
		return
	}

	runCtx, cancel := context.WithTimeout(browserCtx, 2*time.Second)
	defer cancel()
	err := target.DisposeBrowserContext(id).Do(cdp.WithExecutor(runCtx, c.Browser))
	if err != nil && !IsSessionInterrupted(err) {
		logging.Warn("Failed to dispose browsing context", "error", err)
	}
}

// Alive reports whether the browser connection is currently usable.
func (e *Engine) Alive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.browserCtx != nil && e.browserCtx.Err() == nil
}

// LiveContexts returns the number of browsing contexts currently checked out.
func (e *Engine) LiveContexts() int64 {
	return e.live.Load()
}

// Snapshot returns engine stats for the observability endpoint.
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Connected:    !e.closed && e.browserCtx != nil && e.browserCtx.Err() == nil,
		LiveContexts: e.live.Load(),
		Restarts:     e.restarts,
		LastRestart:  e.lastRestart,
		ProfileDir:   e.profileDir,
	}
}
