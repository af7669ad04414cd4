package bindkit

import "sync/atomic"

// Lifetime defines how long a constructed instance is shared.
type Lifetime string

// Available binding lifetimes.
const (
	// LifetimeUnscoped builds a new instance on every resolution.
	LifetimeUnscoped Lifetime = "unscoped"
	// LifetimeSingleton builds one instance per scope tree, at most once.
	LifetimeSingleton Lifetime = "singleton"
)

// Dependency declares one injection point of a Recipe.
type Dependency struct {
	// Key identifies the dependency to resolve.
	Key Key

	// AllowNil permits the provider to return nil for this slot.
	AllowNil bool

	// Deferred marks the injection point as capable of late-binding
	// delegation. The build function receives a *Handle in this slot and
	// must not dereference it until its own construction has returned.
	// Only deferred dependencies can participate in a construction cycle.
	Deferred bool
}

// Dep builds a plain Dependency for the type parameter T.
func Dep[T any](qualifier ...string) Dependency {
	return Dependency{Key: KeyFor[T](qualifier...)}
}

// DeferredDep builds a Dependency injected as a *Handle, allowing it to sit
// on a construction cycle.
func DeferredDep[T any](qualifier ...string) Dependency {
	return Dependency{Key: KeyFor[T](qualifier...), Deferred: true}
}

// Recipe describes how to construct an instance once its dependencies have
// been resolved. Recipes are supplied by the caller (typically a builder or
// reflection layer outside this package); the container never inspects type
// metadata beyond the Key.
type Recipe interface {
	// Dependencies lists the injection points, in the order their resolved
	// values are passed to Build.
	Dependencies() []Dependency

	// Build constructs the instance. deps holds one resolved value per
	// declared dependency; deferred slots hold a *Handle.
	Build(deps []any) (any, error)
}

// RecipeSource supplies recipes for identifiers that have no explicit
// binding, enabling just-in-time binding synthesis.
type RecipeSource interface {
	// RecipeFor returns a recipe for key, or false if the key cannot be
	// synthesized.
	RecipeFor(key Key) (Recipe, bool)
}

// RecipeSourceFunc adapts a function to the RecipeSource interface.
type RecipeSourceFunc func(key Key) (Recipe, bool)

// RecipeFor implements RecipeSource.
func (f RecipeSourceFunc) RecipeFor(key Key) (Recipe, bool) {
	return f(key)
}

type funcRecipe struct {
	deps  []Dependency
	build func(deps []any) (any, error)
}

func (r *funcRecipe) Dependencies() []Dependency { return r.deps }

func (r *funcRecipe) Build(deps []any) (any, error) { return r.build(deps) }

// Func builds a Recipe from a build function and its dependency list.
func Func(build func(deps []any) (any, error), deps ...Dependency) Recipe {
	return &funcRecipe{deps: deps, build: build}
}

type instanceRecipe struct {
	value any
}

func (r *instanceRecipe) Dependencies() []Dependency { return nil }

func (r *instanceRecipe) Build([]any) (any, error) { return r.value, nil }

// Instance builds a Recipe that always yields the given value.
func Instance(v any) Recipe {
	return &instanceRecipe{value: v}
}

// binding is the published form of a registration. Immutable once created;
// replacing a binding always allocates a new one.
type binding struct {
	key      Key
	lifetime Lifetime
	recipe   Recipe
	source   string
	owner    *Container
	id       uint64
	jit      bool
}

var bindingIDs atomic.Uint64

func newBinding(key Key, lifetime Lifetime, recipe Recipe, source string, owner *Container, jit bool) *binding {
	return &binding{
		key:      key,
		lifetime: lifetime,
		recipe:   recipe,
		source:   source,
		owner:    owner,
		id:       bindingIDs.Add(1),
		jit:      jit,
	}
}
