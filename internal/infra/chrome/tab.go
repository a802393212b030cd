package chrome

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/domain"
)

// Tab is one isolated browsing context checked out from the Engine. It is
// used for exactly one render and then closed; it is never handed to another
// request.
type Tab struct {
	engine *Engine
	ctx    context.Context
	cancel context.CancelFunc
	bctxID cdp.BrowserContextID

	closeOnce sync.Once
}

// Render loads html as the tab's document, waits for the engine's readiness
// signal and prints the page to PDF with the given options. The whole
// operation is bounded by ctx; when ctx ends the CDP session is cancelled
// and no partial bytes are returned.
func (t *Tab) Render(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
	params, err := printParams(opts)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	defer cancel()

	var pdfBuf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(cctx context.Context) error {
			frame, err := page.GetFrameTree().Do(cctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(cctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(cctx context.Context) error {
			var err error
			pdfBuf, _, err = params.Do(cctx)
			return err
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			// Report the deadline or disconnect, not the induced CDP error.
			return nil, ctx.Err()
		}
		return nil, err
	}
	return pdfBuf, nil
}

// Close destroys the browsing context. Idempotent; every exit path of a
// request ends here exactly once.
func (t *Tab) Close() {
	t.closeOnce.Do(func() {
		// Detach from the target first, then destroy its browsing context so
		// nothing from this request survives into the next one.
		t.cancel()
		t.engine.disposeContext(t.bctxID)
		t.engine.live.Add(-1)
	})
}

// printParams maps normalized options onto Chrome's native printToPDF
// parameters. Margin length strings are converted here because CDP takes
// margins in inches; a string the engine layer cannot parse is rejected as
// invalid input.
func printParams(opts domain.RenderOptions) (*page.PrintToPDFParams, error) {
	p := page.PrintToPDF().
		WithLandscape(opts.Landscape).
		WithPrintBackground(opts.PrintBackground).
		WithPaperWidth(opts.Paper.Width).
		WithPaperHeight(opts.Paper.Height)

	if opts.Scale > 0 {
		p = p.WithScale(opts.Scale)
	}

	margins := []struct {
		field string
		value string
		dst   *float64
	}{
		{"margin_top", opts.MarginTop, &p.MarginTop},
		{"margin_bottom", opts.MarginBottom, &p.MarginBottom},
		{"margin_left", opts.MarginLeft, &p.MarginLeft},
		{"margin_right", opts.MarginRight, &p.MarginRight},
	}
	for _, m := range margins {
		if m.value == "" {
			continue
		}
		inches, err := lengthToInches(m.value)
		if err != nil {
			return nil, &domain.ValidationError{Field: m.field, Reason: err.Error()}
		}
		*m.dst = inches
	}

	return p, nil
}
