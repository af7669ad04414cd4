package bindkit

import (
	"sync"

	"github.com/google/uuid"
)

// banEntry records one scope's claim on an identifier inside an ancestor's
// banned-key multiset. Eviction removes exactly the entries contributed by
// the dropped scope, never another scope's entry for the same key.
type banEntry struct {
	owner  *Container
	source string
}

// Container is one level of a scope tree. It owns the explicit bindings
// declared at this level, a just-in-time binding cache, the banned-key
// multiset contributed by live descendants, and a reference to its parent
// (nil at the root).
//
// Registration and resolution are safe for concurrent use from multiple
// goroutines against the same scope tree.
type Container struct {
	id     uuid.UUID
	parent *Container
	root   *Container

	mu       sync.RWMutex
	bindings map[Key]*binding
	children map[*Container]struct{}
	closed   bool

	// jit caches synthesized bindings for this level; entries are published
	// with insert-if-absent semantics and may safely race.
	jit sync.Map

	// banned is guarded by the root's treeMu, as are the singleton caches.
	banned     map[Key][]banEntry
	singletons map[uint64]any

	// root-only fields.
	cfg     Config
	metrics *treeMetrics
	treeMu  sync.Mutex
	ctxPool sync.Pool
}

// New creates the root of a fresh scope tree with the given configuration.
func New(cfg Config) *Container {
	root := &Container{
		id:         uuid.New(),
		bindings:   make(map[Key]*binding),
		children:   make(map[*Container]struct{}),
		banned:     make(map[Key][]banEntry),
		singletons: make(map[uint64]any),
		cfg:        cfg,
	}
	root.root = root
	root.metrics = newTreeMetrics(cfg.Metrics, root.id.String())
	root.ctxPool.New = func() interface{} {
		return newConstructionContext()
	}
	return root
}

// Child creates a new scope level below c. Bindings declared in the child
// shadow the parent's for resolutions entered through the child, and ban
// just-in-time synthesis of the same identifier in every ancestor for as
// long as the child lives.
func (c *Container) Child() (*Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &ScopeClosedError{Scope: c.id.String()}
	}
	child := &Container{
		id:         uuid.New(),
		parent:     c,
		root:       c.root,
		bindings:   make(map[Key]*binding),
		children:   make(map[*Container]struct{}),
		banned:     make(map[Key][]banEntry),
		singletons: make(map[uint64]any),
	}
	c.children[child] = struct{}{}
	c.root.logDebug("scope created", "scope", child.id, "parent", c.id)
	return child, nil
}

// Close drops this scope: descendants are closed first, then every ban this
// scope contributed to an ancestor is retracted and its singleton cache is
// released. Close is idempotent. Resolutions must not be in flight on the
// closed subtree.
func (c *Container) Close() error {
	c.root.treeMu.Lock()
	defer c.root.treeMu.Unlock()
	c.closeLocked()
	return nil
}

// closeLocked requires the tree lock.
func (c *Container) closeLocked() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	kids := make([]*Container, 0, len(c.children))
	for child := range c.children {
		kids = append(kids, child)
	}
	c.children = nil
	c.mu.Unlock()

	for _, child := range kids {
		child.closeLocked()
	}

	for a := c.parent; a != nil; a = a.parent {
		a.evictBansOf(c)
	}
	c.singletons = nil

	if p := c.parent; p != nil {
		p.mu.Lock()
		delete(p.children, c)
		p.mu.Unlock()
	}
	c.root.logDebug("scope closed", "scope", c.id)
}

// evictBansOf removes exactly the ban entries contributed by the dropped
// scope. Requires the tree lock.
func (c *Container) evictBansOf(dropped *Container) {
	for key, entries := range c.banned {
		kept := entries[:0]
		for _, e := range entries {
			if e.owner == dropped {
				c.root.metrics.banEvicted()
				c.root.logDebug("ban evicted", "key", key.String(), "scope", c.id, "owner", dropped.id)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.banned, key)
		} else {
			c.banned[key] = kept
		}
	}
}

// Closed reports whether the scope has been closed.
func (c *Container) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ID returns the scope's unique identity, used in diagnostics.
func (c *Container) ID() uuid.UUID {
	return c.id
}

// Register declares an explicit binding for key at this scope level. The
// source string attributes the registration in errors and diagnostics.
// Registering the same key twice at one level fails with
// DuplicateBindingError; registering a key a live descendant already owns
// fails with ConflictingChildBindingError.
func (c *Container) Register(key Key, recipe Recipe, lifetime Lifetime, source string) error {
	if recipe == nil {
		return &NilRecipeError{Key: key}
	}
	c.root.treeMu.Lock()
	defer c.root.treeMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &ScopeClosedError{Scope: c.id.String()}
	}
	if prev, ok := c.bindings[key]; ok {
		return &DuplicateBindingError{Key: key, Source: prev.source}
	}
	if len(c.banned[key]) > 0 {
		return &ConflictingChildBindingError{Key: key}
	}

	c.bindings[key] = newBinding(key, lifetime, recipe, source, c, false)
	// An ancestor may have synthesized key before this registration; the
	// explicit binding supersedes it, so stale cache entries are dropped
	// while the tree lock is held.
	c.jit.Delete(key)
	for a := c.parent; a != nil; a = a.parent {
		a.banned[key] = append(a.banned[key], banEntry{owner: c, source: source})
		a.jit.Delete(key)
		c.root.metrics.banAdded()
	}
	c.root.metrics.bindingRegistered()
	c.root.logDebug("binding registered", "key", key.String(), "lifetime", string(lifetime), "scope", c.id, "source", source)
	return nil
}

// RegisterInstance declares a pre-built value for key. The value is shared
// by every resolution, so the binding is singleton-scoped.
func (c *Container) RegisterInstance(key Key, value any, source string) error {
	return c.Register(key, Instance(value), LifetimeSingleton, source)
}

// Bound reports whether key has an explicit binding visible from this scope.
func (c *Container) Bound(key Key) bool {
	return c.lookupExplicit(key) != nil
}

// Bindings returns the keys explicitly bound at this scope level.
func (c *Container) Bindings() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Key, 0, len(c.bindings))
	for key := range c.bindings {
		out = append(out, key)
	}
	return out
}

// lookupExplicit searches this level then walks to the root, returning the
// first explicit binding for key, or nil.
func (c *Container) lookupExplicit(key Key) *binding {
	for n := c; n != nil; n = n.parent {
		n.mu.RLock()
		b := n.bindings[key]
		n.mu.RUnlock()
		if b != nil {
			return b
		}
	}
	return nil
}

// lookupOrSynthesize resolves key to an explicit binding, a cached JIT
// binding at this level, or a freshly synthesized one when synthesis is
// permitted and key is not banned at or above this level.
func (c *Container) lookupOrSynthesize(key Key, cctx *constructionContext) (*binding, error) {
	if b := c.lookupExplicit(key); b != nil {
		return b, nil
	}
	if v, ok := c.jit.Load(key); ok {
		return v.(*binding), nil
	}

	// The ban check and the cache publish share the tree lock so a
	// concurrent Register cannot ban key between them; Register purges
	// any entries published before it took the lock.
	unlock := cctx.acquireTree(c.root)
	defer unlock()
	for n := c; n != nil; n = n.parent {
		if len(n.banned[key]) > 0 {
			return nil, &ConflictingChildBindingError{Key: key}
		}
	}

	cfg := c.root.cfg
	if cfg.DisableJIT || cfg.Recipes == nil {
		return nil, &MissingBindingError{Key: key}
	}
	recipe, ok := cfg.Recipes.RecipeFor(key)
	if !ok {
		return nil, &MissingBindingError{Key: key}
	}

	// Synthesis is idempotent, so losing the publish race just means
	// adopting the winner's binding.
	b := newBinding(key, LifetimeUnscoped, recipe, "jit", c, true)
	actual, loaded := c.jit.LoadOrStore(key, b)
	if !loaded {
		c.root.metrics.jitSynthesized()
		c.root.logDebug("jit binding synthesized", "key", key.String(), "scope", c.id)
	}
	return actual.(*binding), nil
}

func (c *Container) logDebug(msg string, args ...any) {
	if l := c.root.cfg.Logger; l != nil {
		l.Debug(msg, args...)
	}
}

// Bind registers an unscoped binding for T, building a new instance on
// every resolution.
func Bind[T any](c *Container, recipe Recipe, qualifier ...string) error {
	return c.Register(KeyFor[T](qualifier...), recipe, LifetimeUnscoped, "")
}

// BindSingleton registers a singleton binding for T, built at most once per
// scope tree and shared by every resolution.
func BindSingleton[T any](c *Container, recipe Recipe, qualifier ...string) error {
	return c.Register(KeyFor[T](qualifier...), recipe, LifetimeSingleton, "")
}

// BindInstance registers a pre-built value for T.
func BindInstance[T any](c *Container, value T, qualifier ...string) error {
	return c.RegisterInstance(KeyFor[T](qualifier...), value, "")
}
