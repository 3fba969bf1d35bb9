package di

import (
	"reflect"
	"strings"
)

// Token identifies a service by its Go type.
//
// Two tokens are equal when they were created for the same type, so a Token can be
// compared with == and used as a map key.
type Token struct {
	typ reflect.Type
}

// TokenFor returns the [Token] for type T.
func TokenFor[T any]() Token {
	return Token{typ: reflect.TypeFor[T]()}
}

// Name returns the type name used in diagnostics, such as "*app.Clock".
func (t Token) Name() string {
	if t.typ == nil {
		return "<nil>"
	}
	return t.typ.String()
}

func (t Token) String() string {
	return t.Name()
}

// formatChain renders a construction chain as "A -> B -> C".
func formatChain(chain []Token) string {
	names := make([]string, len(chain))
	for i, t := range chain {
		names[i] = t.Name()
	}
	return strings.Join(names, " -> ")
}
