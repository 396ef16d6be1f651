// Package browser is the UI automation port used by the booking flow:
// page navigation, element lookup by XPath, form input and polling for a
// page condition. Chrome drives a real browser through chromedp, Static reads
// server-rendered pages over HTTP, and browsertest provides an in-memory fake.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/hsp-booker/internal/clock"
)

var (
	ErrNotFound    = errors.New("element not found")
	ErrUnsupported = errors.New("operation not supported")
)

// Selector is an XPath expression.
type Selector string

// Element is a detached snapshot of a located node.
type Element struct {
	Selector Selector
	Tag      string
	Text     string
	Attrs    map[string]string
}

func (e Element) Attr(name string) string { return e.Attrs[name] }

func (e Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Attrs["class"]) {
		if c == class {
			return true
		}
	}
	return false
}

// Reader is the read-only part of the port.
type Reader interface {
	Navigate(ctx context.Context, url string) error
	// Locate returns the first node matching sel or ErrNotFound.
	Locate(ctx context.Context, sel Selector) (Element, error)
	Count(ctx context.Context, sel Selector) (int, error)
	// WaitUntil polls cond until it holds or timeout elapses.
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) (bool, error)
}

// Page is a fully interactive browsing context owned by one attempt.
type Page interface {
	Reader
	Click(ctx context.Context, sel Selector) error
	Type(ctx context.Context, sel Selector, text string) error
	Clear(ctx context.Context, sel Selector) error
	// Select picks the option with value in the <select> matched by sel and
	// fires its change event.
	Select(ctx context.Context, sel Selector, value string) error
	Eval(ctx context.Context, script string) error
	Resize(ctx context.Context, width, height int) error
	// Follow clicks trigger and returns the browsing context it opened.
	Follow(ctx context.Context, trigger Selector) (Page, error)
	SaveSnapshot(ctx context.Context, path string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

// ConditionKind tags the predicate a Condition evaluates.
type ConditionKind int

const (
	ElementPresent ConditionKind = iota
	ElementAbsent
)

func (k ConditionKind) String() string {
	switch k {
	case ElementPresent:
		return "present"
	case ElementAbsent:
		return "absent"
	default:
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
}

// Condition is a predicate over the current page.
type Condition struct {
	Kind     ConditionKind
	Selector Selector
}

func Present(sel Selector) Condition { return Condition{Kind: ElementPresent, Selector: sel} }
func Absent(sel Selector) Condition  { return Condition{Kind: ElementAbsent, Selector: sel} }

func (c Condition) String() string { return fmt.Sprintf("%s(%s)", c.Kind, c.Selector) }

// Eval checks the condition once.
func (c Condition) Eval(ctx context.Context, r Reader) (bool, error) {
	n, err := r.Count(ctx, c.Selector)
	if err != nil {
		return false, err
	}
	switch c.Kind {
	case ElementPresent:
		return n > 0, nil
	case ElementAbsent:
		return n == 0, nil
	default:
		return false, fmt.Errorf("unknown condition kind %d", c.Kind)
	}
}

// Poll evaluates cond every interval until it holds, timeout elapses or ctx
// is done. The condition is always checked at least once.
func Poll(ctx context.Context, clk clock.Clock, r Reader, cond Condition, timeout, interval time.Duration) (bool, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := clk.Now().Add(timeout)
	for {
		ok, err := cond.Eval(ctx, r)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		remaining := deadline.Sub(clk.Now())
		if remaining <= 0 {
			return false, nil
		}
		if err := clk.Sleep(ctx, min(interval, remaining)); err != nil {
			return false, err
		}
	}
}
