package document

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches, 1cm margins
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
	marginInches   = 1 / 2.54
)

// PDFPrinter turns a complete HTML page into PDF bytes
type PDFPrinter interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// PrinterFunc adapts a function to PDFPrinter
type PrinterFunc func(ctx context.Context, html string) ([]byte, error)

// PrintPDF calls f
func (f PrinterFunc) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	return f(ctx, html)
}

// ChromePrinter prints through a headless Chrome started per document
type ChromePrinter struct {
	// ExecPath overrides chromedp's browser lookup when set
	ExecPath string
	Timeout  time.Duration
}

// NewChromePrinter creates a printer with a 30 second budget per document
func NewChromePrinter(execPath string) *ChromePrinter {
	return &ChromePrinter{ExecPath: execPath, Timeout: 30 * time.Second}
}

// PrintPDF renders html on about:blank and prints it to A4
func (p *ChromePrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "ar"),
	)
	if p.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if p.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		browserCtx, timeoutCancel = context.WithTimeout(browserCtx, p.Timeout)
		defer timeoutCancel()
	}

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				WithMarginTop(marginInches).
				WithMarginBottom(marginInches).
				WithMarginLeft(marginInches).
				WithMarginRight(marginInches).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
