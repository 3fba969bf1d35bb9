package di

import (
	"fmt"
	"strings"

	"github.com/sectrean/inject-kit/internal/errors"
)

var (
	// ErrNotFound is returned when no service is registered for a token.
	ErrNotFound = errors.New("service not registered")

	// ErrCyclicDependency is returned when a service depends on itself, directly or
	// through other services.
	ErrCyclicDependency = errors.New("dependency cycle detected")

	// ErrScopeRequired is returned when a scoped service is resolved from the root provider.
	ErrScopeRequired = errors.New("scoped service requires a scope")

	// ErrConstructionFailed is returned when a constructor returns an error.
	ErrConstructionFailed = errors.New("construction failed")

	// ErrCaptiveDependency is returned when a singleton depends on a scoped service.
	ErrCaptiveDependency = errors.New("singleton cannot depend on scoped service")

	// ErrProviderClosed is returned when resolving from a closed provider.
	ErrProviderClosed = errors.New("provider closed")

	// ErrScopeClosed is returned when resolving from a closed scope.
	ErrScopeClosed = errors.New("scope closed")
)

// InjectionError describes why a service could not be resolved.
//
// Kind is one of the sentinel errors in this package, or a context error when the
// resolution was cancelled. Chain is the construction stack at the point of failure,
// ending with Token. Err is the underlying cause, if any.
//
// [errors.Is] matches both Kind and every error wrapped by Err, so a failure deep in the
// graph can be inspected from the outermost error:
//
//	_, err := di.Resolve[*Handler](ctx, p)
//	if errors.Is(err, di.ErrNotFound) {
//		// some dependency of *Handler is not registered
//	}
type InjectionError struct {
	Kind  error
	Token Token
	Chain []Token
	Err   error
}

func (e *InjectionError) Error() string {
	var b strings.Builder
	b.WriteString("resolve ")
	b.WriteString(e.Token.Name())

	if len(e.Chain) > 1 {
		b.WriteString(" (")
		b.WriteString(formatChain(e.Chain))
		b.WriteString(")")
	}

	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *InjectionError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ConstructionError is the failure reported by a constructor.
//
// Constructors may return any error. Errors that are not already an [*InjectionError]
// or a ConstructionError are wrapped in one, tagged with the service being constructed.
type ConstructionError struct {
	Token Token
	Err   error
}

// ConstructionErrorf returns a [*ConstructionError] with a formatted message.
// Use %w to wrap an underlying error.
func ConstructionErrorf(format string, args ...any) *ConstructionError {
	return &ConstructionError{
		Err: fmt.Errorf(format, args...),
	}
}

func (e *ConstructionError) Error() string {
	if e.Err == nil {
		return "constructor failed"
	}
	return e.Err.Error()
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// constructionFailed maps a constructor error into the error taxonomy.
func constructionFailed(token Token, chain []Token, err error) *InjectionError {
	var (
		injErr   *InjectionError
		buildErr *ConstructionError
	)

	cause := err
	if ce, ok := err.(*ConstructionError); ok && ce.Token == (Token{}) {
		cause = &ConstructionError{Token: token, Err: ce.Err}
	} else if !errors.As(err, &injErr) && !errors.As(err, &buildErr) {
		cause = &ConstructionError{Token: token, Err: err}
	}

	return &InjectionError{
		Kind:  ErrConstructionFailed,
		Token: token,
		Chain: chain,
		Err:   cause,
	}
}
