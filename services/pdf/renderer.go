package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Renderer turns a complete HTML document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, document string, viewportWidthPx, viewportHeightPx int) ([]byte, error)
}

// ChromeOptions configures the headless Chrome renderer.
type ChromeOptions struct {
	// ExecPath points at a Chrome or headless-shell binary. Empty uses chromedp's lookup.
	ExecPath string
	// NoSandbox disables Chrome's OS-level sandbox. Only enable it when the
	// process is already isolated by its container or VM.
	NoSandbox bool
	// MaxConcurrent caps how many browsers may run at once.
	MaxConcurrent int
	// LoadTimeout bounds the wait for network idle after the document is loaded.
	LoadTimeout time.Duration
	// NetworkIdle is the quiet window that counts as network idle.
	NetworkIdle time.Duration
	// RenderTimeout bounds a whole render, launch included. Zero means no bound.
	RenderTimeout time.Duration
	// DisableScripts turns off JavaScript in the rendered page.
	DisableScripts bool
	// ProfileBaseDir is where throw-away browser profiles are created. Empty uses os.TempDir.
	ProfileBaseDir string
}

// DefaultChromeOptions mirrors the container defaults.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		NoSandbox:     true,
		MaxConcurrent: 4,
		LoadTimeout:   30 * time.Second,
		NetworkIdle:   500 * time.Millisecond,
		RenderTimeout: 60 * time.Second,
	}
}

// ChromeRenderer launches a fresh browser for every render and tears it down
// afterwards. Browsers are never shared between requests; concurrency is capped
// by a semaphore instead.
type ChromeRenderer struct {
	opts   ChromeOptions
	slots  *semaphore.Weighted
	logger zerolog.Logger
}

// NewChromeRenderer creates a renderer. Non-positive limits fall back to defaults.
func NewChromeRenderer(opts ChromeOptions, logger zerolog.Logger) *ChromeRenderer {
	defaults := DefaultChromeOptions()
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaults.MaxConcurrent
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaults.LoadTimeout
	}
	if opts.NetworkIdle <= 0 {
		opts.NetworkIdle = defaults.NetworkIdle
	}

	return &ChromeRenderer{
		opts:   opts,
		slots:  semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logger.With().Str("component", "chrome_renderer").Logger(),
	}
}

func (r *ChromeRenderer) allocatorOptions(profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu-compositing", true),
	)
	if r.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	// Custom Chrome path (headless-shell in Docker)
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	return opts
}

// Render runs one launch, load, print and teardown cycle.
func (r *ChromeRenderer) Render(ctx context.Context, document string, viewportWidthPx, viewportHeightPx int) ([]byte, error) {
	if viewportWidthPx <= 0 || viewportHeightPx <= 0 {
		return nil, fmt.Errorf("%w: viewport %dx%d", ErrInvalidPageConfig, viewportWidthPx, viewportHeightPx)
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, r.fail("acquire", err)
	}
	defer r.slots.Release(1)

	started := time.Now()

	profileDir, err := os.MkdirTemp(r.opts.ProfileBaseDir, "dental-pdf-*")
	if err != nil {
		return nil, r.fail("profile", err)
	}
	defer os.RemoveAll(profileDir)

	// Cancelling the allocator context kills the browser process and waits for it,
	// so these defers are what guarantees no orphaned Chrome on any return path.
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, r.allocatorOptions(profileDir)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	runCtx := browserCtx
	if r.opts.RenderTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(browserCtx, r.opts.RenderTimeout)
		defer cancel()
	}

	// An empty Run starts the browser and opens the tab.
	if err := chromedp.Run(runCtx); err != nil {
		return nil, r.fail("launch", err)
	}

	tracker := newIdleTracker(r.opts.NetworkIdle)
	chromedp.ListenTarget(browserCtx, tracker.handle)

	setup := []chromedp.Action{
		network.Enable(),
		chromedp.EmulateViewport(int64(viewportWidthPx), int64(viewportHeightPx), chromedp.EmulateScale(1)),
	}
	if r.opts.DisableScripts {
		setup = append(setup, emulation.SetScriptExecutionDisabled(true))
	}
	setup = append(setup,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			tracker.reset()
			return page.SetDocumentContent(frameTree.Frame.ID, document).Do(ctx)
		}),
	)
	if err := chromedp.Run(runCtx, setup...); err != nil {
		return nil, r.fail("navigate", err)
	}

	if err := r.waitForContent(runCtx, tracker); err != nil {
		return nil, err
	}

	var pdfBuf []byte
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		buf, _, err := page.PrintToPDF().
			WithPreferCSSPageSize(true).
			WithPrintBackground(true).
			WithDisplayHeaderFooter(false).
			Do(ctx)
		if err != nil {
			return err
		}
		pdfBuf = buf
		return nil
	}))
	if err != nil {
		return nil, r.fail("print", err)
	}

	r.logger.Debug().
		Int("viewport_width", viewportWidthPx).
		Int("viewport_height", viewportHeightPx).
		Int("bytes", len(pdfBuf)).
		Dur("elapsed", time.Since(started)).
		Msg("PDF rendered")

	return pdfBuf, nil
}

// waitForContent blocks until the body exists and the network has gone quiet.
func (r *ChromeRenderer) waitForContent(ctx context.Context, tracker *idleTracker) error {
	loadCtx, cancel := context.WithTimeout(ctx, r.opts.LoadTimeout)
	defer cancel()

	err := chromedp.Run(loadCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	if err == nil {
		err = tracker.wait(loadCtx)
	}
	if err == nil {
		return nil
	}

	// Only our own load deadline counts as a content timeout; a caller deadline
	// or a render-wide timeout stays a generic failure.
	if errors.Is(loadCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.logger.Warn().
			Dur("load_timeout", r.opts.LoadTimeout).
			Int("inflight_requests", tracker.inFlight()).
			Msg("Content did not reach network idle")
		return fmt.Errorf("%w after %s (%d requests still in flight)",
			ErrContentLoadTimeout, r.opts.LoadTimeout, tracker.inFlight())
	}
	return r.fail("load", err)
}

func (r *ChromeRenderer) fail(stage string, err error) error {
	r.logger.Error().Err(err).Str("stage", stage).Msg("PDF rendering failed")
	return fmt.Errorf("%w: %s: %v", ErrRenderFailed, stage, err)
}
