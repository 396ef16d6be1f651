package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Static reads server-rendered pages over plain HTTP and evaluates XPath
// selectors with htmlquery. It never executes scripts, so it is only used for
// read-only status checks.
type Static struct {
	hc        *http.Client
	userAgent string

	mu  sync.RWMutex
	doc *html.Node
}

var _ Reader = (*Static)(nil)

func NewStatic(timeout time.Duration, userAgent string) *Static {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Static{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (s *Static) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if s.userAgent != "" {
		req.Header.Set("user-agent", s.userAgent)
	}
	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("get %s: http %d", url, res.StatusCode)
	}
	doc, err := htmlquery.Parse(res.Body)
	if err != nil {
		return fmt.Errorf("parse %s: %w", url, err)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *Static) query(sel Selector) ([]*html.Node, error) {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	nodes, err := htmlquery.QueryAll(doc, string(sel))
	if err != nil {
		return nil, fmt.Errorf("xpath %s: %w", sel, err)
	}
	return nodes, nil
}

func (s *Static) Locate(_ context.Context, sel Selector) (Element, error) {
	nodes, err := s.query(sel)
	if err != nil {
		return Element{}, err
	}
	if len(nodes) == 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	n := nodes[0]
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}
	return Element{
		Selector: sel,
		Tag:      strings.ToLower(n.Data),
		Text:     strings.TrimSpace(htmlquery.InnerText(n)),
		Attrs:    attrs,
	}, nil
}

func (s *Static) Count(_ context.Context, sel Selector) (int, error) {
	nodes, err := s.query(sel)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// WaitUntil evaluates cond once; a static document never changes.
func (s *Static) WaitUntil(ctx context.Context, cond Condition, _ time.Duration) (bool, error) {
	return cond.Eval(ctx, s)
}
