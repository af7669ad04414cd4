package bindkit

import (
	"fmt"
	"strings"
)

// MissingBindingError represents a lookup for an identifier with no explicit
// binding and no viable just-in-time construction path.
type MissingBindingError struct {
	Key Key
}

func (e *MissingBindingError) Error() string {
	return fmt.Sprintf("no binding found for %s", e.Key)
}

// DuplicateBindingError represents a second explicit registration for the
// same identifier at the same scope level.
type DuplicateBindingError struct {
	Key    Key
	Source string
}

func (e *DuplicateBindingError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("binding for %s already declared at this scope (first declared at %s)", e.Key, e.Source)
	}
	return fmt.Sprintf("binding for %s already declared at this scope", e.Key)
}

// ConflictingChildBindingError represents a binding request or registration
// for an identifier that a live descendant scope already owns explicitly.
type ConflictingChildBindingError struct {
	Key Key
}

func (e *ConflictingChildBindingError) Error() string {
	return fmt.Sprintf("%s is bound explicitly in a child scope and may not be bound here", e.Key)
}

// CircularDependencyError represents a construction cycle that could not be
// broken with a deferred handle, either because the requesting dependency is
// not deferred or because circular handles are disabled.
type CircularDependencyError struct {
	Key   Key
	Chain []Key
}

func (e *CircularDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return fmt.Sprintf("circular dependency detected for %s", e.Key)
	}
	parts := make([]string, 0, len(e.Chain))
	for _, k := range e.Chain {
		parts = append(parts, k.String())
	}
	return fmt.Sprintf("circular dependency detected for %s: %s", e.Key, strings.Join(parts, " -> "))
}

// NullProvidedError represents a nil instance produced for a dependency that
// does not permit nil.
type NullProvidedError struct {
	Key Key
}

func (e *NullProvidedError) Error() string {
	return fmt.Sprintf("nil instance provided for %s", e.Key)
}

// ProvisionError wraps a fault raised inside user construction logic,
// attributed to the identifier and source of the failing binding.
type ProvisionError struct {
	Key    Key
	Source string
	Err    error
}

func (e *ProvisionError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("provision of %s (bound at %s) failed: %v", e.Key, e.Source, e.Err)
	}
	return fmt.Sprintf("provision of %s failed: %v", e.Key, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// UnresolvedHandleError represents a read of a deferred handle before the
// construction that issued it has finished.
type UnresolvedHandleError struct {
	Key Key
}

func (e *UnresolvedHandleError) Error() string {
	return fmt.Sprintf("handle for %s read before construction finished", e.Key)
}

// TypeMismatchError represents a resolved instance that does not satisfy the
// requested type.
type TypeMismatchError struct {
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Got)
}

// ScopeClosedError represents an operation on a closed scope.
type ScopeClosedError struct {
	Scope string
}

func (e *ScopeClosedError) Error() string {
	return fmt.Sprintf("scope %s is closed", e.Scope)
}

// NilRecipeError represents an attempt to register a nil recipe.
type NilRecipeError struct {
	Key Key
}

func (e *NilRecipeError) Error() string {
	return fmt.Sprintf("nil recipe provided for %s", e.Key)
}

// ResolutionError aggregates the independent failures collected during one
// top-level resolution call.
type ResolutionError struct {
	Errors []error
}

func (e *ResolutionError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d errors during resolution: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the collected failures to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	return e.Errors
}

// ErrorSink observes the structured errors recorded during resolution. It is
// intended for an external formatting or reporting layer; the container
// always aggregates internally regardless of whether a sink is configured.
type ErrorSink interface {
	Record(err error)
}

// ErrorSinkFunc adapts a function to the ErrorSink interface.
type ErrorSinkFunc func(err error)

// Record implements ErrorSink.
func (f ErrorSinkFunc) Record(err error) {
	f(err)
}
