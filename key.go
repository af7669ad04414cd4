package bindkit

import "reflect"

// Key identifies a bindable dependency: a type descriptor plus an optional
// qualifier that distinguishes multiple bindings of the same type.
// Keys are immutable values with structural equality and are used as the
// lookup key throughout the container.
type Key struct {
	Type      reflect.Type
	Qualifier string
}

// KeyFor builds a Key for the type parameter T. An optional qualifier
// distinguishes multiple bindings of the same type.
func KeyFor[T any](qualifier ...string) Key {
	k := Key{Type: reflect.TypeOf((*T)(nil)).Elem()}
	if len(qualifier) > 0 {
		k.Qualifier = qualifier[0]
	}
	return k
}

// KeyOf builds a Key from an explicit reflect.Type.
func KeyOf(t reflect.Type, qualifier string) Key {
	return Key{Type: t, Qualifier: qualifier}
}

// String renders the key for diagnostics, e.g. "mock.Database" or
// "mock.Database(replica)".
func (k Key) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}
	if k.Qualifier != "" {
		return name + "(" + k.Qualifier + ")"
	}
	return name
}

// IsZero reports whether the key carries no type descriptor.
func (k Key) IsZero() bool {
	return k.Type == nil && k.Qualifier == ""
}
