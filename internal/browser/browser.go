// Package browser manages the Chrome session the automation runs in: either
// a headless instance launched for the run, or an attachment to the user's
// already running (and already logged-in) Chrome via its remote debugging
// endpoint.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/pranjalchakraborty/RMS-filler/pkg/config"
)

// Browser handles the Chrome automation session.
type Browser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	cfg         *config.Config
}

// New creates a browser instance from configuration. With a DevTools URL it
// attaches to a running Chrome; otherwise it provisions an exec allocator.
func New(cfg *config.Config) *Browser {
	var allocCtx context.Context
	var cancelAlloc context.CancelFunc

	if cfg.DevToolsURL != "" {
		logrus.Infof("Attaching to running Chrome at %s", cfg.DevToolsURL)
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), cfg.DevToolsURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.WindowSize(1920, 1080),
			chromedp.NoSandbox,
			chromedp.Flag("disable-web-security", true),
			chromedp.Flag("disable-site-isolation-trials", true),
		)
		if !cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	return &Browser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		cfg:         cfg,
	}
}

// Close shuts the allocator down.
func (b *Browser) Close() {
	b.cancelAlloc()
}

// NewTab opens a fresh tab context for one task. The returned cancel must be
// called when the task ends.
func (b *Browser) NewTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(
		b.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			// Only surface real browser errors, not routine protocol chatter.
			msg := fmt.Sprintf(format, args...)
			if (strings.Contains(msg, "error") || strings.Contains(msg, "failed")) &&
				!strings.Contains(msg, "cookiePart") &&
				!strings.Contains(msg, "unmarshal event") {
				logrus.Warnf("🌐 %s", msg)
			}
		}),
	)
}

// OpenPage navigates the tab to the configured routine page, retrying the
// initial load with quadratic backoff. The page-level readiness contract
// (the routine table itself) is checked by the caller.
func (b *Browser) OpenPage(ctx context.Context) error {
	maxRetries := 3
	var err error
	for retry := 0; retry < maxRetries; retry++ {
		if retry > 0 {
			backoff := time.Duration(retry*retry) * time.Second
			logrus.Warnf("⚠️ Retry %d/%d (waiting %s)", retry+1, maxRetries, backoff)
			time.Sleep(backoff)
		}

		err = chromedp.Run(ctx,
			chromedp.Navigate(b.cfg.PageURL),
			chromedp.WaitReady(`body`, chromedp.ByQuery),
		)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to load %s after %d retries: %w", b.cfg.PageURL, maxRetries, err)
}
