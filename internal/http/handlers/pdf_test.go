package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/config"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/domain"
	"github.com/VladsCoffeApp1/container-playwright-pdf/internal/pdf"
)

type fakeContext struct {
	render func(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error)
}

func (c *fakeContext) Render(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
	return c.render(ctx, html, opts)
}

func (c *fakeContext) Close() {}

type fakeEngine struct {
	checkoutErr error
	render      func(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error)
}

func (e *fakeEngine) Checkout(ctx context.Context) (pdf.Context, error) {
	if e.checkoutErr != nil {
		return nil, e.checkoutErr
	}
	return &fakeContext{render: e.render}, nil
}

func (e *fakeEngine) Restart() error { return nil }

func testCfg() config.Config {
	var cfg config.Config
	cfg.App.Name = "container-playwright-pdf"
	cfg.PDF.TimeoutSecs = 1
	cfg.Limits.MaxHTMLBytes = 1024
	return cfg
}

func testApp(cfg config.Config, eng pdf.Engine) *fiber.App {
	svc := pdf.NewService(eng, time.Duration(cfg.PDF.TimeoutSecs)*time.Second, 100*time.Millisecond)
	h := NewPDFHandler(cfg, svc, nil)

	app := fiber.New()
	app.Post("/pdf", h.HandleRender)
	app.Get("/health", h.HandleHealth)
	app.Get("/engine/stats", h.HandleEngineStats)
	return app
}

func postJSON(app *fiber.App, body string) (int, []byte, map[string]string) {
	req := httptest.NewRequest("POST", "/pdf", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		return 0, nil, nil
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	headers := map[string]string{
		"Content-Type":        resp.Header.Get("Content-Type"),
		"Content-Disposition": resp.Header.Get("Content-Disposition"),
	}
	return resp.StatusCode, data, headers
}

func errorBody(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var parsed struct {
		Error map[string]any `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("cannot parse error body %q: %v", data, err)
	}
	if parsed.Error == nil {
		t.Fatalf("expected error object in body %q", data)
	}
	return parsed.Error
}

func TestHandleRender_Success(t *testing.T) {
	eng := &fakeEngine{render: func(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
		return []byte("%PDF-1.4 fake"), nil
	}}
	app := testApp(testCfg(), eng)

	status, body, headers := postJSON(app, `{"html":"<html><body><h1>Hello</h1></body></html>"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Fatalf("expected PDF magic header, got %q", body)
	}
	if headers["Content-Type"] != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", headers["Content-Type"])
	}
	if headers["Content-Disposition"] != "inline; filename=document.pdf" {
		t.Fatalf("unexpected content disposition %q", headers["Content-Disposition"])
	}
}

func TestHandleRender_MissingHTML(t *testing.T) {
	app := testApp(testCfg(), &fakeEngine{})

	for _, body := range []string{`{}`, `{"html":""}`, `{"html":"   "}`} {
		status, data, _ := postJSON(app, body)
		if status != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", body, status)
		}
		e := errorBody(t, data)
		if e["field"] != "html" {
			t.Fatalf("expected offending field html, got %v", e["field"])
		}
	}
}

func TestHandleRender_MalformedJSON(t *testing.T) {
	app := testApp(testCfg(), &fakeEngine{})
	status, data, _ := postJSON(app, `{"html": <not json>`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	e := errorBody(t, data)
	if e["kind"] != "validation" {
		t.Fatalf("expected validation kind, got %v", e["kind"])
	}
}

func TestHandleRender_InvalidScale(t *testing.T) {
	app := testApp(testCfg(), &fakeEngine{})
	status, data, _ := postJSON(app, `{"html":"<html></html>","options":{"scale":9.5}}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	e := errorBody(t, data)
	if e["field"] != "scale" {
		t.Fatalf("expected offending field scale, got %v", e["field"])
	}
}

func TestHandleRender_PayloadTooLarge(t *testing.T) {
	cfg := testCfg()
	cfg.Limits.MaxHTMLBytes = 64
	app := testApp(cfg, &fakeEngine{})

	big := strings.Repeat("a", 256)
	status, data, _ := postJSON(app, `{"html":"`+big+`"}`)
	if status != fiber.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", status, data)
	}
}

func TestHandleRender_EngineUnavailable(t *testing.T) {
	eng := &fakeEngine{checkoutErr: errors.New("connection refused")}
	app := testApp(testCfg(), eng)

	status, data, _ := postJSON(app, `{"html":"<html></html>"}`)
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	e := errorBody(t, data)
	if e["kind"] != "engine-unavailable" {
		t.Fatalf("expected engine-unavailable kind, got %v", e["kind"])
	}
}

func TestHandleRender_Timeout(t *testing.T) {
	eng := &fakeEngine{render: func(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	app := testApp(testCfg(), eng)

	status, data, _ := postJSON(app, `{"html":"<html></html>"}`)
	if status != fiber.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", status, data)
	}
	e := errorBody(t, data)
	if e["kind"] != "timeout" {
		t.Fatalf("expected timeout kind, got %v", e["kind"])
	}
}

func TestHandleRender_EngineFailure(t *testing.T) {
	eng := &fakeEngine{render: func(ctx context.Context, html string, opts domain.RenderOptions) ([]byte, error) {
		return nil, errors.New("target closed")
	}}
	app := testApp(testCfg(), eng)

	status, data, _ := postJSON(app, `{"html":"<html></html>"}`)
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	e := errorBody(t, data)
	if e["kind"] != "engine-failure" {
		t.Fatalf("expected engine-failure kind, got %v", e["kind"])
	}
}

func TestHandleHealth(t *testing.T) {
	app := testApp(testCfg(), &fakeEngine{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("cannot decode health body: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "container-playwright-pdf" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestHandleEngineStats_NoEngine(t *testing.T) {
	app := testApp(testCfg(), &fakeEngine{})

	resp, err := app.Test(httptest.NewRequest("GET", "/engine/stats", nil))
	if err != nil {
		t.Fatalf("stats request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("cannot decode stats body: %v", err)
	}
	if body["connected"] != false {
		t.Fatalf("expected connected false without engine, got %v", body)
	}
}
