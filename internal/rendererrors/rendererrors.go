// Package rendererrors defines the error taxonomy of spec §7: the fixed set
// of kinds a render can fail with, plus dedup-and-count warning aggregation.
package rendererrors

import (
	"errors"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

// Kind is the taxonomy of render failure, spec §7.
type Kind int

const (
	AdmParseError Kind = iota + 1
	AdmReferenceError
	AdmTimingError
	LayoutError
	RenderError
	OverloadError
)

func (k Kind) String() string {
	switch k {
	case AdmParseError:
		return "AdmParseError"
	case AdmReferenceError:
		return "AdmReferenceError"
	case AdmTimingError:
		return "AdmTimingError"
	case LayoutError:
		return "LayoutError"
	case RenderError:
		return "RenderError"
	case OverloadError:
		return "OverloadError"
	default:
		return "UnknownError"
	}
}

// Error is a taxonomy-tagged error. Wrap/Unwrap lets errors.Is/As see through
// to the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context *Context
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Context != nil && e.Context.Debug {
		msg = fmt.Sprintf("%s (item=%s rtime=%.6f)", msg, e.Context.ItemPath, e.Context.Rtime)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a taxonomy error with no diagnostic context attached yet.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a taxonomy error around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err carries the given taxonomy kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Context carries the --debug diagnostic context spec §7 attaches to any
// error: the ADM path of the offending item and the rtime of the offending
// block.
type Context struct {
	ItemPath string
	Rtime    float64
	Debug    bool
}

// Attach stamps diagnostic context onto a taxonomy error, returning err
// unchanged if it isn't one. When c has no ItemPath, the item path and
// rtime of a context already attached are kept.
func (c Context) Attach(err error) error {
	var e *Error
	if errors.As(err, &e) {
		ctx := c
		if ctx.ItemPath == "" && e.Context != nil {
			ctx.ItemPath = e.Context.ItemPath
			ctx.Rtime = e.Context.Rtime
		}
		e.Context = &ctx
	}
	return err
}

// Warnings collects non-fatal findings across a render and deduplicates
// identical messages, reporting each distinct message once with a final
// count, per spec §7.
type Warnings struct {
	counts map[string]int
	order  []string
}

func NewWarnings() *Warnings {
	return &Warnings{counts: make(map[string]int)}
}

func (w *Warnings) Add(msg string) {
	if _, ok := w.counts[msg]; !ok {
		w.order = append(w.order, msg)
	}
	w.counts[msg]++
}

func (w *Warnings) Addf(format string, args ...any) {
	w.Add(fmt.Sprintf(format, args...))
}

// Empty reports whether any warning was ever recorded.
func (w *Warnings) Empty() bool {
	return len(w.order) == 0
}

// Summary renders one line per distinct warning with its count, in
// first-seen order, matching the teacher's dedup-on-exit convention.
func (w *Warnings) Summary() []string {
	lines := make([]string, 0, len(w.order))
	for _, msg := range w.order {
		n := w.counts[msg]
		if n == 1 {
			lines = append(lines, msg)
		} else {
			lines = append(lines, fmt.Sprintf("%s (x%d)", msg, n))
		}
	}
	return lines
}

// AsError folds every distinct warning into one multierror, for callers
// that want to treat accumulated warnings (e.g. under --strict) as a
// single aggregate error.
func (w *Warnings) AsError() error {
	var result *multierror.Error
	for _, line := range w.Summary() {
		result = multierror.Append(result, fmt.Errorf("%s", line))
	}
	return result.ErrorOrNil()
}
