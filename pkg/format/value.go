package format

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kiln-shell/kiln/pkg/ui"
)

// Displayer is implemented by values that supply a display template, a format
// string with {Member} placeholders. Each placeholder is resolved by looking
// up the named member (an exported field, or a niladic method) on the value
// and formatting its result one verbosity level down.
type Displayer interface {
	DisplayTemplate() string
}

// Stringer is the overridden string conversion consulted when a value has no
// display template. It is fmt.Stringer under a local name.
type Stringer interface {
	String() string
}

func (p *Printer) formatValue(rv reflect.Value, v Verbosity, depth int) ui.Text {
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || isNilValue(rv) {
		return p.theme.T(ui.ThemeNull, "null")
	}

	// Predeclared primitive types take the fast path. Named types with a
	// primitive underlying kind may carry a custom conversion (like
	// time.Duration) and go through the full dispatch below.
	if rv.Type().PkgPath() == "" {
		if text, ok := p.formatPrimitive(rv, v); ok {
			return text
		}
	}

	// Nested values beyond the depth bound collapse to their type name. This
	// is what makes cyclic graphs safe to format.
	if depth >= p.maxDepth {
		return p.typeNameText(rv.Type())
	}

	value := rv.Interface()

	if d, ok := value.(Displayer); ok {
		return p.formatDisplayTemplate(d.DisplayTemplate(), rv, v, depth)
	}
	for _, f := range p.formatters {
		if f.Match(rv) {
			return f.Format(p, rv, v, depth)
		}
	}
	if s, ok := value.(Stringer); ok {
		return p.formatStringer(s, v)
	}
	if rv.Kind() == reflect.Pointer {
		return p.formatValue(rv.Elem(), v, depth+1)
	}
	if text, ok := p.formatPrimitive(rv, v); ok {
		return text
	}

	// Generic fallback: just the formatted type name.
	return p.typeNameText(rv.Type())
}

func (p *Printer) formatPrimitive(rv reflect.Value, v Verbosity) (ui.Text, bool) {
	switch rv.Kind() {
	case reflect.String:
		return p.formatString(rv.String(), v), true
	case reflect.Bool:
		return p.theme.T(ui.ThemeKeyword, strconv.FormatBool(rv.Bool())), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return p.theme.T(ui.ThemeNumber, strconv.FormatInt(rv.Int(), 10)), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return p.theme.T(ui.ThemeNumber, strconv.FormatUint(rv.Uint(), 10)), true
	case reflect.Float32, reflect.Float64:
		return p.theme.T(ui.ThemeNumber, formatFloat(rv.Float())), true
	case reflect.Complex64, reflect.Complex128:
		return p.theme.T(ui.ThemeNumber, strconv.FormatComplex(rv.Complex(), 'g', -1, 128)), true
	}
	return nil, false
}

// formatString renders a string: escaped and quoted under Summary, raw under
// Detailed.
func (p *Printer) formatString(s string, v Verbosity) ui.Text {
	if v == Detailed {
		return ui.T(s)
	}
	return p.theme.T(ui.ThemeString, strconv.Quote(s))
}

// formatStringer invokes an overridden string conversion. A panicking String
// method renders as an error token naming the panic, never propagating.
func (p *Printer) formatStringer(s Stringer, v Verbosity) ui.Text {
	str, err := safeString(s)
	if err != nil {
		return p.errorToken(err.typeName)
	}
	return p.formatString(str, v)
}

// formatDisplayTemplate substitutes {Member} placeholders in a display
// template. A placeholder naming a missing member renders an inline error
// token rather than failing the whole value.
func (p *Printer) formatDisplayTemplate(tmpl string, rv reflect.Value, v Verbosity, depth int) ui.Text {
	var out ui.Text
	for len(tmpl) > 0 {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			out = append(out, ui.T(tmpl)...)
			break
		}
		close := strings.IndexByte(tmpl[open:], '}')
		if close < 0 {
			out = append(out, ui.T(tmpl)...)
			break
		}
		close += open
		if open > 0 {
			out = append(out, ui.T(tmpl[:open])...)
		}
		name := tmpl[open+1 : close]
		member, ok := lookupMember(rv, name)
		if !ok {
			out = append(out, p.theme.T(ui.ThemeError, "!{"+name+"}")...)
		} else {
			out = append(out, p.formatValue(reflect.ValueOf(member), v.Increment(), depth+1)...)
		}
		tmpl = tmpl[close+1:]
	}
	return out
}

// lookupMember resolves a member name on a value to the member's current
// value: an exported struct field, or the first result of a niladic method.
// The second return value is false if no such member exists or retrieving it
// failed.
func lookupMember(rv reflect.Value, name string) (member any, ok bool) {
	defer func() {
		if recover() != nil {
			member, ok = nil, false
		}
	}()
	if m := rv.MethodByName(name); m.IsValid() {
		t := m.Type()
		if t.NumIn() == 0 && t.NumOut() >= 1 {
			return m.Call(nil)[0].Interface(), true
		}
	}
	elem := rv
	for elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil, false
		}
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Struct {
		if f := elem.FieldByName(name); f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	}
	return nil, false
}

func isNilValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

type conversionPanic struct {
	typeName string
}

func safeString(s Stringer) (str string, failure *conversionPanic) {
	defer func() {
		if r := recover(); r != nil {
			failure = &conversionPanic{typeName: fmt.Sprintf("%T", r)}
		}
	}()
	return s.String(), nil
}

// safeToString is the last-resort plain conversion used by the outermost
// error containment.
func safeToString(value any) (str string, failure *conversionPanic) {
	defer func() {
		if r := recover(); r != nil {
			failure = &conversionPanic{typeName: fmt.Sprintf("%T", r)}
		}
	}()
	return fmt.Sprint(value), nil
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a visible decimal point for integral floats, so 1.0 does not read
	// like the integer 1.
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}
