package invoice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// renderEngine abstracts the headless browser so session lifecycle logic can
// be tested without one. Launch must be called before Navigate or ExportPDF;
// Close must be a no-op when the engine never launched, and safe to call
// more than once.
type renderEngine interface {
	Launch(ctx context.Context) error
	Navigate(ctx context.Context, target string) error
	ExportPDF(ctx context.Context) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ renderEngine = (*rodEngine)(nil)

// Session lifecycle constants.
const (
	// defaultSessionTimeout bounds navigation and page operations.
	defaultSessionTimeout = 30 * time.Second

	// navigationAttempts is the total number of attempts for the transient
	// frame-detached condition: the original attempt plus two retries,
	// without backoff.
	navigationAttempts = 3

	// frameDetachedSignature is the error text of the one navigation failure
	// known to be transient in the underlying engine. The engine does not
	// expose a structured code for it, so the signature is matched on the
	// message.
	frameDetachedSignature = "frame detached"
)

// A4 page geometry in inches; margins are 10px at CSS 96dpi.
const (
	paperWidthA4  = 8.27
	paperHeightA4 = 11.69
	pageMargin    = 10.0 / 96.0
)

// RenderSession owns one headless browser instance for one document:
// launch, navigate with retry, paginate to PDF, guaranteed teardown.
// A session is single-use and must not be shared across renders.
type RenderSession struct {
	engine  renderEngine
	timeout time.Duration
}

// NewRenderSession creates a session backed by a fresh headless Chrome
// instance. A non-positive timeout means the default of 30 seconds.
func NewRenderSession(timeout time.Duration) *RenderSession {
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	return &RenderSession{engine: &rodEngine{timeout: timeout}, timeout: timeout}
}

// Render drives the full session lifecycle for one document. The engine is
// released exactly once on every exit path; if launching fails the engine
// never held a resource and Close is not needed.
func (s *RenderSession) Render(ctx context.Context, markup string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.engine.Launch(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer func() { _ = s.engine.Close() }()

	path, cleanup, err := writeTempHTML(markup)
	if err != nil {
		return nil, fmt.Errorf("staging markup: %w", err)
	}
	defer cleanup()
	target := "file://" + path

	if err := s.navigate(ctx, target); err != nil {
		return nil, err
	}

	pdf, err := s.engine.ExportPDF(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFExport, err)
	}
	return pdf, nil
}

// navigate loads the document, retrying only the frame-detached condition.
// Any other navigation error is final after a single attempt.
func (s *RenderSession) navigate(ctx context.Context, target string) error {
	var last error
	for attempt := 1; attempt <= navigationAttempts; attempt++ {
		err := s.engine.Navigate(ctx, target)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: navigating %s: %v", ErrRenderTimeout, target, err)
		}
		if !isFrameDetached(err) {
			return fmt.Errorf("navigating %s: %w", target, err)
		}
		last = err
	}
	return fmt.Errorf("%w: %s after %d attempts: %v", ErrNavigationExhausted, target, navigationAttempts, last)
}

// isFrameDetached reports whether err matches the transient frame-detached
// navigation failure.
func isFrameDetached(err error) bool {
	return err != nil && strings.Contains(err.Error(), frameDetachedSignature)
}

// writeTempHTML stages the markup on disk so the engine can reach it over
// file://. The cleanup func removes the file and never fails.
func writeTempHTML(markup string) (path string, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", "volo-invoice-*.html")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp document: %w", err)
	}
	path = tmp.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, err := tmp.WriteString(markup); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp document: %w", err)
	}
	return path, cleanup, nil
}

// rodEngine implements renderEngine using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	timeout time.Duration
	browser *rod.Browser
	page    *rod.Page
}

// Launch starts and connects to a headless browser instance.
func (e *rodEngine) Launch(ctx context.Context) error {
	if e.browser != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return err
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return err
	}
	e.browser = browser
	return nil
}

// Navigate opens the target document and waits for it to load. A page left
// over from a failed attempt is discarded first.
func (e *rodEngine) Navigate(ctx context.Context, target string) error {
	if e.page != nil {
		_ = e.page.Close()
		e.page = nil
	}

	page, err := e.browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return err
	}

	timeout, err := e.opTimeout(ctx)
	if err != nil {
		_ = page.Close()
		return err
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		_ = page.Close()
		return err
	}

	e.page = page
	return nil
}

// ExportPDF paginates the loaded document: A4 paper, uniform 10px margins,
// background graphics on, CSS-declared page size honored over the default.
func (e *rodEngine) ExportPDF(ctx context.Context) ([]byte, error) {
	timeout, err := e.opTimeout(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := e.page.Timeout(timeout).PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthA4),
		PaperHeight:       floatPtr(paperHeightA4),
		MarginTop:         floatPtr(pageMargin),
		MarginBottom:      floatPtr(pageMargin),
		MarginLeft:        floatPtr(pageMargin),
		MarginRight:       floatPtr(pageMargin),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, err
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return pdfBuf, nil
}

// opTimeout derives the bound for one page operation: the session timeout,
// clamped to whatever remains of the caller's deadline.
func (e *rodEngine) opTimeout(ctx context.Context) (time.Duration, error) {
	timeout := e.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}

// Close releases the page and browser. Safe to call when nothing launched.
func (e *rodEngine) Close() error {
	var errs []error
	if e.page != nil {
		if err := e.page.Close(); err != nil {
			errs = append(errs, err)
		}
		e.page = nil
	}
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		e.browser = nil
	}
	return errors.Join(errs...)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
