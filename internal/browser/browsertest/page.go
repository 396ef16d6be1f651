// Package browsertest provides an in-memory browser.Page for tests. Elements
// are keyed by their exact selector string; click hooks let a test model the
// page transitions a submit button triggers.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/example/hsp-booker/internal/browser"
	"github.com/example/hsp-booker/internal/clock"
)

type Page struct {
	clock        clock.Clock
	pollInterval time.Duration

	mu          sync.Mutex
	url         string
	elements    map[browser.Selector][]browser.Element
	onClick     map[browser.Selector]func(p *Page)
	onNavigate  func(p *Page, url string) error
	follows     map[browser.Selector]*Page
	clicks      []browser.Selector
	typed       map[browser.Selector]string
	selected    map[browser.Selector]string
	evals       []string
	snapshots   []string
	size        [2]int
	html        string
	evalErr     error
	closed      bool
	navigations int
}

var _ browser.Page = (*Page)(nil)

func New(clk clock.Clock) *Page {
	return &Page{
		clock:        clk,
		pollInterval: 100 * time.Millisecond,
		elements:     map[browser.Selector][]browser.Element{},
		onClick:      map[browser.Selector]func(p *Page){},
		follows:      map[browser.Selector]*Page{},
		typed:        map[browser.Selector]string{},
		selected:     map[browser.Selector]string{},
	}
}

// Set places a single element under sel.
func (p *Page) Set(sel browser.Selector, el browser.Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	el.Selector = sel
	p.elements[sel] = []browser.Element{el}
	return p
}

// SetText is a shorthand for an element with only text.
func (p *Page) SetText(sel browser.Selector, tag, text string) *Page {
	return p.Set(sel, browser.Element{Tag: tag, Text: text})
}

// SetCount makes sel match n identical elements.
func (p *Page) SetCount(sel browser.Selector, n int) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := make([]browser.Element, n)
	for i := range els {
		els[i] = browser.Element{Selector: sel}
	}
	p.elements[sel] = els
	return p
}

func (p *Page) Remove(sel browser.Selector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, sel)
}

func (p *Page) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements = map[browser.Selector][]browser.Element{}
}

// OnClick registers fn to run after sel is clicked.
func (p *Page) OnClick(sel browser.Selector, fn func(p *Page)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[sel] = fn
	return p
}

// OnNavigate registers fn to run on every navigation; a returned error fails
// the navigation.
func (p *Page) OnNavigate(fn func(p *Page, url string) error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNavigate = fn
	return p
}

// OnFollow makes a click on trigger open child.
func (p *Page) OnFollow(trigger browser.Selector, child *Page) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.follows[trigger] = child
	return p
}

func (p *Page) SetHTML(html string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
	return p
}

func (p *Page) FailEval(err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evalErr = err
	return p
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.url = url
	p.navigations++
	hook := p.onNavigate
	p.mu.Unlock()
	if hook != nil {
		return hook(p, url)
	}
	return ctx.Err()
}

func (p *Page) Locate(_ context.Context, sel browser.Selector) (browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.elements[sel]
	if len(els) == 0 {
		return browser.Element{}, fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	return els[0], nil
}

func (p *Page) Count(_ context.Context, sel browser.Selector) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.elements[sel]), nil
}

func (p *Page) WaitUntil(ctx context.Context, cond browser.Condition, timeout time.Duration) (bool, error) {
	return browser.Poll(ctx, p.clock, p, cond, timeout, p.pollInterval)
}

func (p *Page) Click(_ context.Context, sel browser.Selector) error {
	p.mu.Lock()
	if len(p.elements[sel]) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	p.clicks = append(p.clicks, sel)
	hook := p.onClick[sel]
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Type(_ context.Context, sel browser.Selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elements[sel]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	p.typed[sel] += text
	return nil
}

func (p *Page) Clear(_ context.Context, sel browser.Selector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elements[sel]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	p.typed[sel] = ""
	return nil
}

// Select requires an element under sel. Options are not modelled.
func (p *Page) Select(_ context.Context, sel browser.Selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.elements[sel]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, sel)
	}
	p.selected[sel] = value
	return nil
}

func (p *Page) Eval(_ context.Context, script string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evals = append(p.evals, script)
	return p.evalErr
}

func (p *Page) Resize(_ context.Context, width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.size = [2]int{width, height}
	return nil
}

func (p *Page) Follow(ctx context.Context, trigger browser.Selector) (browser.Page, error) {
	if err := p.Click(ctx, trigger); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	child, ok := p.follows[trigger]
	if !ok {
		return nil, fmt.Errorf("no page opened by %s", trigger)
	}
	return child, nil
}

// SaveSnapshot writes a placeholder file so tests can assert the artifact.
func (p *Page) SaveSnapshot(_ context.Context, path string) error {
	p.mu.Lock()
	p.snapshots = append(p.snapshots, path)
	p.mu.Unlock()
	return os.WriteFile(path, []byte("snapshot"), 0o644)
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Navigations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.navigations
}

func (p *Page) Clicks(sel browser.Selector) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == sel {
			n++
		}
	}
	return n
}

func (p *Page) Typed(sel browser.Selector) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.typed[sel]
}

// Selected returns the value last chosen in the <select> under sel.
func (p *Page) Selected(sel browser.Selector) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected[sel]
}

func (p *Page) Evals() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.evals...)
}

func (p *Page) Snapshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.snapshots...)
}

func (p *Page) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size[0], p.size[1]
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
