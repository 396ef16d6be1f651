package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/example/hsp-booker/internal/clock"
)

// ChromeOptions configures the headless (or visible) Chrome session.
type ChromeOptions struct {
	Headless      bool
	UserAgent     string
	PageTimeout   time.Duration
	ActionTimeout time.Duration
	PollInterval  time.Duration
	Logger        zerolog.Logger
}

// Chrome drives one Chrome tab through chromedp. The root instance owns the
// browser process; instances returned by Follow own only their tab.
type Chrome struct {
	opts ChromeOptions
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

var _ Page = (*Chrome)(nil)

// NewChrome starts the browser. The parent context bounds the browser's
// lifetime, not individual operations.
func NewChrome(parent context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 20 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}

	execOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	execOpts = append(execOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// hide navigator.webdriver from the booking pages
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// the first Run starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	opts.Logger.Debug().Bool("headless", opts.Headless).Msg("chrome started")

	return &Chrome{
		opts:          opts,
		log:           opts.Logger,
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

// run executes actions on this tab bounded by timeout and the caller's ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	start := time.Now()
	if err := c.run(ctx, c.opts.PageTimeout, chromedp.Navigate(url), waitForDocumentReady(c.opts.PollInterval)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	c.log.Debug().Str("url", url).Dur("latency", time.Since(start)).Msg("page loaded")
	return nil
}

func (c *Chrome) nodes(ctx context.Context, sel Selector) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	// AtLeast(0) returns immediately instead of waiting for a match
	err := c.run(ctx, c.opts.ActionTimeout, chromedp.Nodes(string(sel), &nodes, chromedp.BySearch, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}
	return nodes, nil
}

func (c *Chrome) Locate(ctx context.Context, sel Selector) (Element, error) {
	nodes, err := c.nodes(ctx, sel)
	if err != nil {
		return Element{}, err
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	n := nodes[0]

	var text string
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return Element{}, fmt.Errorf("read text %s: %w", sel, err)
	}

	attrs := make(map[string]string, len(n.Attributes)/2)
	for i := 0; i+1 < len(n.Attributes); i += 2 {
		attrs[n.Attributes[i]] = n.Attributes[i+1]
	}
	return Element{
		Selector: sel,
		Tag:      strings.ToLower(n.NodeName),
		Text:     strings.TrimSpace(text),
		Attrs:    attrs,
	}, nil
}

func (c *Chrome) Count(ctx context.Context, sel Selector) (int, error) {
	nodes, err := c.nodes(ctx, sel)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (c *Chrome) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) (bool, error) {
	return Poll(ctx, clock.Real{}, c, cond, timeout, c.opts.PollInterval)
}

// present fails fast with ErrNotFound instead of letting chromedp wait for
// a node that is not there.
func (c *Chrome) present(ctx context.Context, sel Selector) error {
	nodes, err := c.nodes(ctx, sel)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return nil
}

func (c *Chrome) Click(ctx context.Context, sel Selector) error {
	if err := c.present(ctx, sel); err != nil {
		return err
	}
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Click(string(sel), chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

func (c *Chrome) Type(ctx context.Context, sel Selector, text string) error {
	if err := c.present(ctx, sel); err != nil {
		return err
	}
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.SendKeys(string(sel), text, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("type into %s: %w", sel, err)
	}
	return nil
}

func (c *Chrome) Clear(ctx context.Context, sel Selector) error {
	if err := c.present(ctx, sel); err != nil {
		return err
	}
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Clear(string(sel), chromedp.BySearch)); err != nil {
		return fmt.Errorf("clear %s: %w", sel, err)
	}
	return nil
}

// selectJS sets a <select> found by XPath and dispatches change, since
// options of a closed dropdown cannot be clicked.
const selectJS = `(function(xpath, value) {
	const el = document.evaluate(xpath, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el || !Array.from(el.options).some(o => o.value === value)) return false;
	el.value = value;
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return true;
})(%s, %s)`

func (c *Chrome) Select(ctx context.Context, sel Selector, value string) error {
	if err := c.present(ctx, sel); err != nil {
		return err
	}
	xpath, _ := json.Marshal(string(sel))
	val, _ := json.Marshal(value)
	var ok bool
	script := fmt.Sprintf(selectJS, xpath, val)
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("select %q in %s: %w", value, sel, err)
	}
	if !ok {
		return fmt.Errorf("%w: option %q in %s", ErrNotFound, value, sel)
	}
	return nil
}

func (c *Chrome) Eval(ctx context.Context, script string) error {
	var res any
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (c *Chrome) Resize(ctx context.Context, width, height int) error {
	return c.run(ctx, c.opts.ActionTimeout, chromedp.EmulateViewport(int64(width), int64(height)))
}

// Follow clicks trigger and attaches to the tab it opens.
func (c *Chrome) Follow(ctx context.Context, trigger Selector) (Page, error) {
	listenCtx, stopListening := context.WithCancel(c.ctx)
	defer stopListening()
	ch := chromedp.WaitNewTarget(listenCtx, func(info *target.Info) bool {
		return info.Type == "page"
	})
	if err := c.Click(ctx, trigger); err != nil {
		return nil, err
	}

	t := time.NewTimer(c.opts.PageTimeout)
	defer t.Stop()
	var id target.ID
	select {
	case id = <-ch:
	case <-t.C:
		return nil, fmt.Errorf("no new tab opened by %s within %s", trigger, c.opts.PageTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tabCtx, cancel := chromedp.NewContext(c.ctx, chromedp.WithTargetID(id))
	if err := chromedp.Run(tabCtx, waitForDocumentReady(c.opts.PollInterval)); err != nil {
		cancel()
		return nil, fmt.Errorf("attach tab %s: %w", id, err)
	}
	c.log.Debug().Str("target", string(id)).Msg("switched to new tab")
	return &Chrome{opts: c.opts, log: c.log, ctx: tabCtx, cancel: cancel}, nil
}

func (c *Chrome) SaveSnapshot(ctx context.Context, path string) error {
	var buf []byte
	if err := c.run(ctx, c.opts.PageTimeout, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf, 0o644)
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, c.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return html, nil
}

// Close closes the tab, or the whole browser for the root instance.
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
		return nil
	}
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

func waitForDocumentReady(interval time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			var readyState string
			if err := chromedp.Evaluate(`document.readyState`, &readyState).Do(ctx); err != nil {
				return err
			}
			if readyState == "complete" {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
