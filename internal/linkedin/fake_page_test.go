// File: internal/linkedin/fake_page_test.go

package linkedin

import (
	"context"
	"regexp"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var pinSetRe = regexp.MustCompile(`el\.value = "([^"]*)"`)

// fakePage is a scripted Page. It models just enough browser state for the
// flows: a current URL, per-selector visibility and text, a live PIN field
// value, and hook functions tests use to advance the page on navigation or
// click. All pauses return immediately so tests run on shortened deadlines.
type fakePage struct {
	mu sync.Mutex

	location    string
	exists      map[string]bool
	visibleText map[string]string
	waitErr     map[string]error
	evalResults map[string]any
	pinValue    string

	// evalFunc, when set, is consulted before evalResults for expressions
	// the built-in handling does not cover.
	evalFunc  func(expr string, out any) error
	clickFunc func(sel string)
	navFunc   func(url string)

	navigations []string
	clicks      []string
	typed       map[string]string
	keys        []string
	enterCount  int
	closeCount  int
}

func newFakePage(location string) *fakePage {
	return &fakePage{
		location:    location,
		exists:      make(map[string]bool),
		visibleText: make(map[string]string),
		waitErr:     make(map[string]error),
		evalResults: make(map[string]any),
		typed:       make(map[string]string),
	}
}

func (f *fakePage) setLocation(loc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = loc
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.navigations = append(f.navigations, url)
	f.location = url
	fn := f.navFunc
	f.mu.Unlock()
	if fn != nil {
		fn(url)
	}
	return ctx.Err()
}

func (f *fakePage) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location, ctx.Err()
}

func (f *fakePage) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.waitErr[selector]; ok {
		return err
	}
	return ctx.Err()
}

func (f *fakePage) Exists(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists[selector], ctx.Err()
}

func (f *fakePage) VisibleText(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visibleText[selector], ctx.Err()
}

func (f *fakePage) Evaluate(ctx context.Context, expr string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case expr == rememberMeCheckedJS:
		f.mu.Lock()
		v := f.evalResults[expr]
		f.mu.Unlock()
		if v == nil {
			v = false
		}
		assignEval(out, v)
		return nil
	case expr == pinValueJS:
		f.mu.Lock()
		v := f.pinValue
		f.mu.Unlock()
		assignEval(out, v)
		return nil
	case expr == pinClearJS:
		f.mu.Lock()
		f.pinValue = ""
		f.mu.Unlock()
		assignEval(out, true)
		return nil
	}
	if m := pinSetRe.FindStringSubmatch(expr); m != nil {
		f.mu.Lock()
		f.pinValue = m[1]
		f.mu.Unlock()
		assignEval(out, true)
		return nil
	}
	if f.evalFunc != nil {
		return f.evalFunc(expr, out)
	}
	f.mu.Lock()
	v, ok := f.evalResults[expr]
	f.mu.Unlock()
	if ok {
		assignEval(out, v)
	}
	return nil
}

func (f *fakePage) Click(ctx context.Context, selector string) error {
	f.mu.Lock()
	f.clicks = append(f.clicks, selector)
	fn := f.clickFunc
	f.mu.Unlock()
	if fn != nil {
		fn(selector)
	}
	return ctx.Err()
}

func (f *fakePage) Type(ctx context.Context, selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[selector] = text
	if selector == pinInputSelector {
		f.pinValue = text
	}
	return ctx.Err()
}

func (f *fakePage) SendKeys(ctx context.Context, keys string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, keys)
	if keys == "\b" && f.pinValue != "" {
		f.pinValue = f.pinValue[:len(f.pinValue)-1]
	}
	return ctx.Err()
}

func (f *fakePage) PressEnter(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enterCount++
	return ctx.Err()
}

func (f *fakePage) Pause(ctx context.Context, _, _ time.Duration) error {
	return ctx.Err()
}

func (f *fakePage) ScrollRandom(ctx context.Context) error {
	return ctx.Err()
}

func (f *fakePage) CookiePresent(ctx context.Context, _ string) (bool, error) {
	return true, ctx.Err()
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

// assignEval copies a scripted value into the caller's out pointer the same
// way the real driver unmarshals a remote evaluation result.
func assignEval(out, v any) {
	if out == nil {
		return
	}
	b, err := jsoniter.Marshal(v)
	if err != nil {
		return
	}
	_ = jsoniter.Unmarshal(b, out)
}
