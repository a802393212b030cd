package pdf

import (
	"context"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/infra/chrome"
)

// chromeEngine adapts *chrome.Engine to the Engine interface.
type chromeEngine struct {
	eng *chrome.Engine
}

func (a chromeEngine) Checkout(ctx context.Context) (Context, error) {
	tab, err := a.eng.Checkout(ctx)
	if err != nil {
		return nil, err
	}
	return tab, nil
}

func (a chromeEngine) Restart() error { return a.eng.Restart() }

// NewChromeService builds the production lifecycle manager on top of the
// shared Chrome engine, with timeouts taken from the configuration.
func NewChromeService(cfg config.Config, eng *chrome.Engine) *Service {
	return NewService(chromeEngine{eng: eng}, cfg.RenderTimeout(), cfg.AcquireTimeout())
}
