package extract

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in a shared headless Chrome so listings
// built client-side are present in the returned HTML.
type BrowserFetcher struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready for late scripts.
	Settle time.Duration

	// launch starts the shared browser. Tests replace it.
	launch func() (browserCtx context.Context, cancel func(), err error)

	mu         sync.Mutex
	browserCtx context.Context
	cancel     func()
}

func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{
		Timeout: 60 * time.Second,
		Settle:  2 * time.Second,
		launch:  launchChrome,
	}
}

func launchChrome() (context.Context, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserAgent(defaultUserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, nil, err
	}
	return browserCtx, cancel, nil
}

// browser returns the live shared browser context, starting one when none is
// running. The context is read and returned under the lock.
func (b *BrowserFetcher) browser() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return b.browserCtx, nil
		}
	}

	ctx, cancel, err := b.launch()
	if err != nil {
		return nil, err
	}
	b.browserCtx, b.cancel = ctx, cancel
	return ctx, nil
}

func (b *BrowserFetcher) cleanup() {
	if b.cancel != nil {
		b.cancel()
	}
	b.browserCtx = nil
	b.cancel = nil
}

// Close shuts the browser down. The next Fetch starts a new one.
func (b *BrowserFetcher) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
}

func (b *BrowserFetcher) Fetch(ctx context.Context, target string) (string, error) {
	browserCtx, err := b.browser()
	if err != nil {
		return "", fmt.Errorf("failed to initialize browser: %w", err)
	}

	// Each fetch gets its own tab so concurrent agents do not share a page.
	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, b.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.Settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch of %s failed: %w", target, err)
	}
	return html, nil
}
