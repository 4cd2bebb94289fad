package format

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/kiln-shell/kiln/pkg/ui"
)

// TypeNameOptions configures FormatTypeName.
type TypeNameOptions struct {
	// Qualified includes the package qualifier of named types.
	Qualified bool
	// OpenBracket and CloseBracket delimit generic type argument lists.
	// They default to "[" and "]".
	OpenBracket, CloseBracket string
	// ArrayRadix is the radix used for array bounds; it defaults to 10.
	ArrayRadix int
}

func (opts TypeNameOptions) fillDefaults() TypeNameOptions {
	if opts.OpenBracket == "" {
		opts.OpenBracket = "["
	}
	if opts.CloseBracket == "" {
		opts.CloseBracket = "]"
	}
	if opts.ArrayRadix == 0 {
		opts.ArrayRadix = 10
	}
	return opts
}

// typeNameText renders a type name with default options.
func (p *Printer) typeNameText(t reflect.Type) ui.Text {
	return p.FormatTypeName(t, TypeNameOptions{})
}

// FormatTypeName renders a type signature as styled text: keyword aliases for
// primitive types, generic argument lists, array bounds, and optional package
// qualification.
func (p *Printer) FormatTypeName(t reflect.Type, opts TypeNameOptions) ui.Text {
	return p.formatType(t, opts.fillDefaults())
}

func (p *Printer) formatType(t reflect.Type, opts TypeNameOptions) ui.Text {
	if t == nil {
		return p.theme.T(ui.ThemeKeyword, "any")
	}
	if t.Name() != "" {
		return p.formatNamedType(t, opts)
	}

	punct := func(s string) ui.Text { return p.theme.T(ui.ThemePunctuation, s) }
	switch t.Kind() {
	case reflect.Pointer:
		return ui.Concat(punct("*"), p.formatType(t.Elem(), opts))
	case reflect.Slice:
		return ui.Concat(punct("[]"), p.formatType(t.Elem(), opts))
	case reflect.Array:
		bound := strconv.FormatInt(int64(t.Len()), opts.ArrayRadix)
		return ui.Concat(punct("["),
			p.theme.T(ui.ThemeNumber, bound),
			punct("]"), p.formatType(t.Elem(), opts))
	case reflect.Map:
		return ui.Concat(p.theme.T(ui.ThemeKeyword, "map"), punct("["),
			p.formatType(t.Key(), opts), punct("]"),
			p.formatType(t.Elem(), opts))
	case reflect.Chan:
		return ui.Concat(p.theme.T(ui.ThemeKeyword, "chan "), p.formatType(t.Elem(), opts))
	case reflect.Func:
		return p.formatFuncType(t, opts)
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return p.theme.T(ui.ThemeKeyword, "any")
		}
	}
	return ui.T(t.String())
}

func (p *Printer) formatNamedType(t reflect.Type, opts TypeNameOptions) ui.Text {
	name := t.Name()
	if isPrimitiveKind(t.Kind()) && name == t.Kind().String() {
		// A predeclared type renders as its language keyword.
		return p.theme.T(ui.ThemeKeyword, name)
	}

	base, args := splitGenericName(name)
	class := ui.ThemeClassName
	switch t.Kind() {
	case reflect.Struct:
		class = ui.ThemeStructName
	case reflect.Interface:
		class = ui.ThemeClassName
	}

	var out ui.Text
	if opts.Qualified && t.PkgPath() != "" {
		pkg := t.PkgPath()
		if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
			pkg = pkg[i+1:]
		}
		out = append(out, ui.T(pkg+".")...)
	}
	out = append(out, p.theme.T(class, base)...)
	if len(args) > 0 {
		out = append(out, p.theme.T(ui.ThemePunctuation, opts.OpenBracket)...)
		for i, arg := range args {
			if i > 0 {
				out = append(out, ui.T(", ")...)
			}
			out = append(out, ui.T(arg)...)
		}
		out = append(out, p.theme.T(ui.ThemePunctuation, opts.CloseBracket)...)
	}
	return out
}

func (p *Printer) formatFuncType(t reflect.Type, opts TypeNameOptions) ui.Text {
	out := p.theme.T(ui.ThemeKeyword, "func")
	out = append(out, p.theme.T(ui.ThemePunctuation, "(")...)
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			out = append(out, ui.T(", ")...)
		}
		in := t.In(i)
		if t.IsVariadic() && i == t.NumIn()-1 {
			out = append(out, p.theme.T(ui.ThemePunctuation, "...")...)
			in = in.Elem()
		}
		out = append(out, p.formatType(in, opts)...)
	}
	out = append(out, p.theme.T(ui.ThemePunctuation, ")")...)
	switch t.NumOut() {
	case 0:
	case 1:
		out = append(out, ui.T(" ")...)
		out = append(out, p.formatType(t.Out(0), opts)...)
	default:
		out = append(out, ui.T(" ")...)
		out = append(out, p.theme.T(ui.ThemePunctuation, "(")...)
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				out = append(out, ui.T(", ")...)
			}
			out = append(out, p.formatType(t.Out(i), opts)...)
		}
		out = append(out, p.theme.T(ui.ThemePunctuation, ")")...)
	}
	return out
}

// splitGenericName splits a reflected type name like "Pair[int,string]" into
// its base name and type argument list.
func splitGenericName(name string) (base string, args []string) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, nil
	}
	base = name[:open]
	depth := 0
	arg := strings.Builder{}
	for _, r := range name[open+1 : len(name)-1] {
		switch {
		case r == '[':
			depth++
			arg.WriteRune(r)
		case r == ']':
			depth--
			arg.WriteRune(r)
		case r == ',' && depth == 0:
			args = append(args, arg.String())
			arg.Reset()
		default:
			arg.WriteRune(r)
		}
	}
	if arg.Len() > 0 {
		args = append(args, arg.String())
	}
	return base, args
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// SuppressGeneratedName rewrites a compiler-generated function name (like the
// closures synthesized for deferred or suspended computations) to the name of
// the function that produced it. Other names are returned with their package
// directory prefix removed.
func SuppressGeneratedName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	for {
		i := strings.LastIndex(name, ".func")
		if i < 0 {
			break
		}
		suffix := name[i+len(".func"):]
		if suffix == "" || strings.Trim(suffix, "0123456789.") != "" {
			break
		}
		name = name[:i]
	}
	return name
}
