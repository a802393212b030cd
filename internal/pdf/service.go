// Package pdf drives the lifecycle of one render request: normalize the
// options, borrow an isolated browsing context from the shared engine,
// render under a deadline and always give the context back.
package pdf

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/domain"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/logging"
)

// Context is one isolated browsing environment borrowed for a single render.
type Context interface {
	Render(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error)
	Close()
}

// Engine hands out isolated browsing contexts from the single shared browser
// connection. Implementations must be safe for concurrent Checkout calls.
type Engine interface {
	Checkout(ctx context.Context) (Context, error)
	Restart() error
}

// Service is the request lifecycle manager. One Service serves the whole
// process; each Handle call is independent and holds no state between calls
// beyond the injected engine.
type Service struct {
	engine         Engine
	renderTimeout  time.Duration
	acquireTimeout time.Duration
}

// NewService wires a lifecycle manager around the given engine. Tests pass a
// fake engine here; production wiring lives in NewChromeService.
func NewService(engine Engine, renderTimeout, acquireTimeout time.Duration) *Service {
	return &Service{
		engine:         engine,
		renderTimeout:  renderTimeout,
		acquireTimeout: acquireTimeout,
	}
}

// Handle converts one request into PDF bytes or a classified error:
// *domain.ValidationError, *domain.AcquisitionError or *domain.RenderError.
// Invalid input never touches the engine. Whatever happens, the browsing
// context checked out for this call is closed before Handle returns.
func (s *Service) Handle(ctx context.Context, req domain.RenderRequest) ([]byte, error) {
	if strings.TrimSpace(req.HTML) == "" {
		return nil, &domain.ValidationError{Field: "html", Reason: "must not be empty"}
	}
	opts, err := domain.Normalize(req.Options)
	if err != nil {
		return nil, err
	}

	tab, err := s.checkout(ctx)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()

	buf, err := tab.Render(renderCtx, req.HTML, opts)
	if err != nil {
		return nil, classifyRender(renderCtx, err)
	}
	return buf, nil
}

// checkout borrows a browsing context, restarting the engine and retrying
// exactly once if the first attempt fails. Acquisition gets its own short
// timeout so a dead browser fails fast instead of consuming the render budget.
func (s *Service) checkout(ctx context.Context) (Context, error) {
	acquire := func() (Context, error) {
		acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
		return s.engine.Checkout(acquireCtx)
	}

	tab, err := acquire()
	if err == nil {
		return tab, nil
	}
	if ctx.Err() != nil {
		// The caller is gone or out of budget; restarting won't help them.
		return nil, &domain.AcquisitionError{Err: err}
	}

	logging.Warn("Context checkout failed, restarting engine and retrying once", "error", err)
	if restartErr := s.engine.Restart(); restartErr != nil {
		return nil, &domain.AcquisitionError{Err: restartErr}
	}
	tab, err = acquire()
	if err != nil {
		return nil, &domain.AcquisitionError{Err: err}
	}
	return tab, nil
}

// classifyRender folds a raw render failure into the error taxonomy. A
// ValidationError surfacing from option mapping keeps its identity; an
// elapsed deadline is a timeout; everything else means the engine failed.
func classifyRender(renderCtx context.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
		return &domain.RenderError{Kind: domain.KindTimeout, Err: err}
	}
	return &domain.RenderError{Kind: domain.KindEngineFailure, Err: err}
}
