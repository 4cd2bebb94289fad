package format

import (
	"reflect"
	"runtime"
	"sort"
	"strconv"

	"github.com/kiln-shell/kiln/pkg/ui"
)

// Formatter renders values matched by its predicate. The printer tries its
// formatters in order; the first match wins.
type Formatter interface {
	// Match reports whether this formatter handles the value.
	Match(rv reflect.Value) bool
	// Format renders the value. It may recurse through the printer, passing
	// an incremented verbosity and depth for nested values.
	Format(p *Printer, rv reflect.Value, v Verbosity, depth int) ui.Text
}

// FormatterFunc builds a Formatter from a predicate and a handler.
func FormatterFunc(match func(reflect.Value) bool,
	format func(*Printer, reflect.Value, Verbosity, int) ui.Text) Formatter {
	return funcFormatter{match, format}
}

type funcFormatter struct {
	match  func(reflect.Value) bool
	format func(*Printer, reflect.Value, Verbosity, int) ui.Text
}

func (f funcFormatter) Match(rv reflect.Value) bool { return f.match(rv) }
func (f funcFormatter) Format(p *Printer, rv reflect.Value, v Verbosity, depth int) ui.Text {
	return f.format(p, rv, v, depth)
}

// Iterator is implemented by lazy sequences. Iterate must call f for each
// element until f returns false; it may never terminate on its own, so users
// must bound the number of elements they consume.
type Iterator interface {
	Iterate(f func(elem any) bool)
}

// KVPair is a key-value pair, rendered as "key: value".
type KVPair struct {
	Key, Value any
}

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	iteratorType = reflect.TypeOf((*Iterator)(nil)).Elem()
	typeType     = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	methodType   = reflect.TypeOf(reflect.Method{})
	kvPairType   = reflect.TypeOf(KVPair{})
)

var builtinFormatters = []Formatter{
	FormatterFunc(matchType(errorType), formatError),
	FormatterFunc(matchType(typeType), formatTypeValue),
	FormatterFunc(matchExact(methodType), formatMethodValue),
	FormatterFunc(matchExact(kvPairType), formatKVPair),
	FormatterFunc(matchKind(reflect.Func), formatFuncValue),
	FormatterFunc(matchKind(reflect.Map), formatMapValue),
	FormatterFunc(func(rv reflect.Value) bool {
		k := rv.Kind()
		return k == reflect.Slice || k == reflect.Array || rv.Type().Implements(iteratorType)
	}, formatSeqValue),
}

func matchType(t reflect.Type) func(reflect.Value) bool {
	return func(rv reflect.Value) bool { return rv.Type().Implements(t) }
}

func matchExact(t reflect.Type) func(reflect.Value) bool {
	return func(rv reflect.Value) bool { return rv.Type() == t }
}

func matchKind(k reflect.Kind) func(reflect.Value) bool {
	return func(rv reflect.Value) bool { return rv.Kind() == k }
}

func formatError(p *Printer, rv reflect.Value, v Verbosity, _ int) ui.Text {
	return p.FormatException(rv.Interface().(error), v).Text
}

func formatTypeValue(p *Printer, rv reflect.Value, _ Verbosity, _ int) ui.Text {
	return p.typeNameText(rv.Interface().(reflect.Type))
}

func formatKVPair(p *Printer, rv reflect.Value, v Verbosity, depth int) ui.Text {
	pair := rv.Interface().(KVPair)
	return ui.Concat(
		p.formatValue(reflect.ValueOf(pair.Key), v.Increment(), depth+1),
		ui.T(": "),
		p.formatValue(reflect.ValueOf(pair.Value), v.Increment(), depth+1))
}

func formatMethodValue(p *Printer, rv reflect.Value, _ Verbosity, _ int) ui.Text {
	m := rv.Interface().(reflect.Method)
	return ui.Concat(
		p.theme.T(ui.ThemeMethodName, m.Name),
		ui.T(" "),
		p.typeNameText(m.Type))
}

func formatFuncValue(p *Printer, rv reflect.Value, _ Verbosity, _ int) ui.Text {
	name := ""
	if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
		name = SuppressGeneratedName(fn.Name())
	}
	if name == "" {
		return p.typeNameText(rv.Type())
	}
	return ui.Concat(
		p.theme.T(ui.ThemeMethodName, name),
		ui.T(" "),
		p.typeNameText(rv.Type()))
}

func formatMapValue(p *Printer, rv reflect.Value, v Verbosity, depth int) ui.Text {
	type entry struct {
		key  string // plain key text, for deterministic ordering
		text ui.Text
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() && len(entries) < p.maxElements {
		key := p.formatValue(iter.Key(), v.Increment(), depth+1)
		value := p.formatValue(iter.Value(), v.Increment(), depth+1)
		entries = append(entries, entry{
			key.Plain(), ui.Concat(key, ui.T(": "), value)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	elems := make([]ui.Text, len(entries))
	for i, e := range entries {
		elems[i] = e.text
	}
	header := ui.Concat(p.typeNameText(rv.Type()),
		ui.T("["+strconv.Itoa(rv.Len())+"]"))
	return p.braceBlock(header, elems, len(elems) < rv.Len(), v)
}

func formatSeqValue(p *Printer, rv reflect.Value, v Verbosity, depth int) ui.Text {
	if rv.Type().Implements(iteratorType) && rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return p.formatIterator(rv.Interface().(Iterator), rv.Type(), v, depth)
	}

	n := rv.Len()
	shown := min(n, p.maxElements)
	elems := make([]ui.Text, 0, shown)
	budget := p.maxLength
	for i := 0; i < shown && budget > 0; i++ {
		elem := p.formatValue(rv.Index(i), v.Increment(), depth+1)
		budget -= elem.Len()
		elems = append(elems, elem)
	}
	header := ui.Concat(p.typeNameText(rv.Type().Elem()),
		ui.T("["+strconv.Itoa(n)+"]"))
	return p.braceBlock(header, elems, len(elems) < n, v)
}

// formatIterator enumerates a lazy sequence, capped at the configured maximum
// element count so that infinite sequences terminate.
func (p *Printer) formatIterator(it Iterator, t reflect.Type, v Verbosity, depth int) ui.Text {
	var elems []ui.Text
	truncated := false
	budget := p.maxLength
	it.Iterate(func(elem any) bool {
		if len(elems) >= p.maxElements || budget <= 0 {
			truncated = true
			return false
		}
		text := p.formatValue(reflect.ValueOf(elem), v.Increment(), depth+1)
		budget -= text.Len()
		elems = append(elems, text)
		return true
	})
	header := ui.Concat(p.typeNameText(t),
		ui.T("["+strconv.Itoa(len(elems))+seqCountSuffix(truncated)+"]"))
	return p.braceBlock(header, elems, truncated, v)
}

func seqCountSuffix(truncated bool) string {
	if truncated {
		return "+"
	}
	return ""
}

// braceBlock renders "header { e1, e2, … }" on a single line under Summary,
// and one element per line (without a trailing comma) under Detailed.
func (p *Printer) braceBlock(header ui.Text, elems []ui.Text, truncated bool, v Verbosity) ui.Text {
	if truncated {
		elems = append(elems, p.ellipsis())
	}
	if len(elems) == 0 {
		return ui.Concat(header, ui.T(" { }"))
	}
	out := ui.Concat(header, ui.T(" {"))
	for i, elem := range elems {
		if v == Detailed {
			out = append(out, ui.T("\n  ")...)
		} else if i == 0 {
			out = append(out, ui.T(" ")...)
		}
		out = append(out, elem...)
		if i < len(elems)-1 {
			out = append(out, ui.T(",")...)
			if v != Detailed {
				out = append(out, ui.T(" ")...)
			}
		}
	}
	if v == Detailed {
		return append(out, ui.T("\n}")...)
	}
	return append(out, ui.T(" }")...)
}
