// Package format renders arbitrary runtime values into styled, truncated
// text. It is safe against cyclic graphs, lazy sequences and misbehaving
// String methods: every path is bounded in depth and length, and no
// formatting error ever propagates to the caller.
package format

import (
	"reflect"
	"sync"
	"time"

	"github.com/kiln-shell/kiln/pkg/logutil"
	"github.com/kiln-shell/kiln/pkg/ui"
)

var logger = logutil.GetLogger("[format] ")

// Verbosity selects the level of detail of formatted output.
type Verbosity int

const (
	// Summary renders values on a single line, with strings escaped and
	// quoted.
	Summary Verbosity = iota
	// Detailed renders values in expanded, multi-line form, with strings
	// unescaped.
	Detailed
)

// Increment returns the verbosity to use for nested values. Nested values are
// always summarized, so recursion never proceeds at full detail indefinitely.
func (v Verbosity) Increment() Verbosity { return Summary }

func (v Verbosity) String() string {
	if v == Detailed {
		return "detailed"
	}
	return "summary"
}

// FormattedValue is the result of formatting a value: styled text plus the
// original value. A nil value is reported through Nil, which distinguishes it
// from the string "null".
type FormattedValue struct {
	Text  ui.Text
	Value any
	Nil   bool
}

// Defaults for PrinterConfig fields that are left zero.
const (
	DefaultMaxLength   = 20000
	DefaultMaxElements = 1000
	DefaultMaxDepth    = 4

	cacheTTL = 2 * time.Minute
)

// Ellipsis is appended where output was cut short.
const Ellipsis = "…"

// PrinterConfig configures a Printer. The zero value of each field selects a
// default.
type PrinterConfig struct {
	// MaxLength is the character budget of any single formatted result.
	MaxLength int
	// MaxElements caps how many elements of a sequence are enumerated.
	MaxElements int
	// MaxDepth bounds recursion into nested values.
	MaxDepth int
	// Beautifier rewrites stack frames when formatting exceptions.
	Beautifier FrameBeautifier
	// Formatters are tried before the builtin ones.
	Formatters []Formatter
}

// Printer formats values. It is stateless apart from a time-boxed result
// cache, and may be used concurrently.
type Printer struct {
	theme       ui.Theme
	maxLength   int
	maxElements int
	maxDepth    int
	beautifier  FrameBeautifier
	formatters  []Formatter

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewPrinter builds a Printer with the given theme and configuration.
func NewPrinter(theme ui.Theme, cfg PrinterConfig) *Printer {
	p := &Printer{
		theme:       theme,
		maxLength:   cfg.MaxLength,
		maxElements: cfg.MaxElements,
		maxDepth:    cfg.MaxDepth,
		beautifier:  cfg.Beautifier,
		cache:       make(map[cacheKey]cacheEntry),
	}
	if p.maxLength <= 0 {
		p.maxLength = DefaultMaxLength
	}
	if p.maxElements <= 0 {
		p.maxElements = DefaultMaxElements
	}
	if p.maxDepth <= 0 {
		p.maxDepth = DefaultMaxDepth
	}
	p.formatters = append(append([]Formatter(nil), cfg.Formatters...), builtinFormatters...)
	return p
}

// FormatObject formats a value at the given verbosity. It never panics: an
// unexpected error while formatting makes it fall back to the value's plain
// string conversion, and failing that, to an error token naming the failure.
// The result text never exceeds the configured length budget.
func (p *Printer) FormatObject(value any, v Verbosity) FormattedValue {
	if value == nil {
		return FormattedValue{Text: p.theme.T(ui.ThemeNull, "null"), Nil: true}
	}
	if text, ok := p.cachedText(value, v); ok {
		return FormattedValue{Text: text, Value: value}
	}
	text := p.formatContained(value, v)
	text = limitText(text, p.maxLength, p.ellipsis())
	p.storeCache(value, v, text)
	return FormattedValue{Text: text, Value: value}
}

// formatContained runs the recursive formatter under the outermost recover,
// so no formatting error ever escapes to the caller.
func (p *Printer) formatContained(value any, v Verbosity) (text ui.Text) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("formatting %T panicked: %v", value, r)
			text = p.panicFallback(value)
		}
	}()
	return p.formatValue(reflect.ValueOf(value), v, 0)
}

// panicFallback tries the plain string conversion of a value whose formatting
// panicked, falling back to an error token naming the conversion's own panic.
func (p *Printer) panicFallback(value any) ui.Text {
	s, err := safeToString(value)
	if err != nil {
		return p.errorToken(err.typeName)
	}
	return ui.T(s)
}

// errorToken renders "!<TypeName>" in the error style.
func (p *Printer) errorToken(typeName string) ui.Text {
	return p.theme.T(ui.ThemeError, "!<"+typeName+">")
}

func (p *Printer) ellipsis() ui.Text {
	return p.theme.T(ui.ThemeComment, Ellipsis)
}

type cacheKey struct {
	id uintptr
	ty reflect.Type
	v  Verbosity
}

type cacheEntry struct {
	text   ui.Text
	expiry time.Time
}

// cacheIdentity returns a stable identity for values that are meaningfully
// identifiable (pointer-shaped values). Other values are not cached.
func cacheIdentity(value any) (cacheKey, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return cacheKey{id: rv.Pointer(), ty: rv.Type()}, true
	}
	return cacheKey{}, false
}

func (p *Printer) cachedText(value any, v Verbosity) (ui.Text, bool) {
	key, ok := cacheIdentity(value)
	if !ok {
		return nil, false
	}
	key.v = v
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.cache[key]
	if !ok || time.Now().After(entry.expiry) {
		delete(p.cache, key)
		return nil, false
	}
	return entry.text, true
}

func (p *Printer) storeCache(value any, v Verbosity, text ui.Text) {
	key, ok := cacheIdentity(value)
	if !ok {
		return
	}
	key.v = v
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = cacheEntry{text, time.Now().Add(cacheTTL)}
}
