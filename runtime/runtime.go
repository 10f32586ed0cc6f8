// Package runtime declares the target interface the code generator emits
// calls against (spec.md §6, "Generated code external contract"). It is a
// thin, uninstantiated contract only: no WebDriver transport, no browser
// session management, and no action implementation live here, matching
// spec.md §1's Non-goals ("implementing the browser-automation protocol").
// Every generated method in package codegen's output assumes a concrete
// implementation of Driver exists elsewhere; this package exists so the
// contract has one place to be named and documented in Go terms, the way a
// thin Rust trait would be declared in the actual target.
package runtime

import (
	"context"
	"time"
)

// Result mirrors the Result<T, Bundle>-shaped return spec.md §6 requires on
// every fallible runtime call. Go already has a natural Result shape
// (value, error); Result exists only to give the generator's documentation
// a name to point at, not because Go needs a boxed alternative to (T, error).
type Result[T any] struct {
	Value T
	Err   error
}

// Ok reports whether the call succeeded.
func (r Result[T]) Ok() bool { return r.Err == nil }

// Locator is an opaque, already-rendered selector expression: the output of
// package codegen's selector rendering, ready to hand to a Driver.
type Locator struct {
	Kind  string
	Value string
	Args  []any
}

// Driver is the session-scoped capability surface generated code drives.
type Driver interface {
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	EnterFrame(ctx context.Context, loc Locator) (FrameScope, error)
	EnterParentFrame(ctx context.Context) error
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Element is a located DOM node. Its method set is the union of every
// capability action in spec.md §4.5; package codegen's wrapper types
// (e.g. a "ClickableElement") each expose only the subset their declared
// ElementType admits, per spec.md §9's "capability union via polymorphism".
type Element interface {
	// basic (always present)
	GetAttribute(ctx context.Context, name string) (string, error)
	GetText(ctx context.Context) (string, error)
	IsVisible(ctx context.Context) (bool, error)
	IsPresent(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	ContainsElement(ctx context.Context, loc Locator, pierce bool) (bool, error)
	GetShadowRoot(ctx context.Context) (ShadowRoot, error)

	// actionable
	Focus(ctx context.Context) error
	Blur(ctx context.Context) error
	ScrollToCenter(ctx context.Context) error
	ScrollToTop(ctx context.Context) error
	MoveTo(ctx context.Context) error

	// clickable
	Click(ctx context.Context) error
	DoubleClick(ctx context.Context) error
	RightClick(ctx context.Context) error
	ClickAndHold(ctx context.Context, millis int) error

	// editable
	Clear(ctx context.Context) error
	SetText(ctx context.Context, value string) error
	ClearAndType(ctx context.Context, value string) error
	Press(ctx context.Context, keyName string) error

	// draggable
	DragAndDrop(ctx context.Context, target Locator) error
	DragAndDropByOffset(ctx context.Context, x, y float64) error

	// container
	Load(ctx context.Context) error
	LoadAs(ctx context.Context, componentType string) error
}

// ShadowRoot is the encapsulated subtree reachable from an Element via
// GetShadowRoot.
type ShadowRoot interface {
	Find(ctx context.Context, loc Locator) (Element, error)
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// FrameScope is a scoped resource: entering a frame returns a handle whose
// Close (the drop-equivalent spec.md §9 describes) switches back to the
// parent frame exactly once, even on abnormal exit.
type FrameScope interface {
	Close(ctx context.Context) error
}

// WaitFor polls predicate at pollInterval until it returns true or timeout
// elapses, implementing spec.md §5's wait_for_load polling contract.
// Generated wait_for_<element> methods call wait_for; generated
// wait_for_load emits its own polling loop around load() instead.
func WaitFor(ctx context.Context, predicate func(context.Context) (bool, error), timeout, pollInterval time.Duration, description string) error {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := predicate(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Condition: description}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// TimeoutError is the Timeout{condition} diagnostic string spec.md §5
// specifies wait_for_load fails with on deadline.
type TimeoutError struct {
	Condition string
}

func (e *TimeoutError) Error() string { return "timeout waiting for: " + e.Condition }
