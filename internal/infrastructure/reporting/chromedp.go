package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultScale         = 1.0

	// Closing statements print on A4 with a uniform margin.
	a4WidthMM       = 210
	a4HeightMM      = 297
	defaultMarginMM = 12

	mmPerInch = 25.4
)

// ChromedpConfig configures the statement PDF renderer.
type ChromedpConfig struct {
	// DefaultTimeout bounds a single render when the request does not carry
	// its own timeout.
	DefaultTimeout time.Duration
	// RemoteURL points at an already-running Chrome instance. When empty the
	// renderer launches its own headless browser.
	RemoteURL string
	// NoSandbox is required when Chrome runs as root inside a container.
	NoSandbox bool
	// Scale applied to the printed page.
	Scale float64
	Logger *zap.Logger
}

// ChromedpRenderer prints statement HTML to A4 PDF through the Chrome
// DevTools Protocol. One allocator is shared by all renders; each render gets
// its own browser context.
type ChromedpRenderer struct {
	defaultTimeout time.Duration
	scale          float64
	logger         *zap.Logger
	allocCtx       context.Context
	allocCancel    context.CancelFunc
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)

// NewChromedpRenderer builds a renderer and its Chrome allocator.
func NewChromedpRenderer(config *ChromedpConfig) (*ChromedpRenderer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}

	r := &ChromedpRenderer{
		defaultTimeout: config.DefaultTimeout,
		scale:          config.Scale,
		logger:         config.Logger,
	}
	if r.defaultTimeout == 0 {
		r.defaultTimeout = defaultChromeTimeout
	}
	if r.scale == 0 {
		r.scale = defaultScale
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
		return r, nil
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(config.NoSandbox)...)
	return r, nil
}

func allocatorOptions(noSandbox bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		// /dev/shm is tiny in containers
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if noSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// Render prints the statement HTML to PDF.
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	started := time.Now()
	var pdfData []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		setDocumentContent(wrapDocument(req)),
		printToPDF(r.scale, &pdfData),
	)
	if err != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		case context.Canceled:
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}
		r.logger.Error("statement rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed: "+err.Error(), err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	elapsed := time.Since(started)
	r.logger.Info("Statement PDF rendered",
		zap.Int("bytes", len(pdfData)),
		zap.Duration("duration", elapsed))

	return &RenderResult{
		PDFData:        pdfData,
		RenderDuration: elapsed,
	}, nil
}

// setDocumentContent injects the HTML into the blank page. Navigating to a
// data: URL would break relative resources; SetDocumentContent does not.
func setDocumentContent(html string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		frameTree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
	}
}

func printToPDF(scale float64, out *[]byte) chromedp.ActionFunc {
	margin := float64(defaultMarginMM) / mmPerInch
	return func(ctx context.Context) error {
		data, _, err := page.PrintToPDF().
			WithPrintBackground(true).
			WithPaperWidth(a4WidthMM / mmPerInch).
			WithPaperHeight(a4HeightMM / mmPerInch).
			WithMarginTop(margin).
			WithMarginRight(margin).
			WithMarginBottom(margin).
			WithMarginLeft(margin).
			WithScale(scale).
			Do(ctx)
		if err != nil {
			return err
		}
		*out = data
		return nil
	}
}

// wrapDocument completes a bare HTML fragment into a printable document.
// Statement templates that already declare a document pass through untouched.
func wrapDocument(req *RenderRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
	if req.Title != "" {
		b.WriteString("<title>")
		b.WriteString(req.Title)
		b.WriteString("</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(req.HTML)
	b.WriteString("</body></html>")
	return b.String()
}

// Close tears down the shared Chrome allocator.
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}
