package bindkit

import "fmt"

// Resolve turns key into a live instance, entering the resolution algorithm
// with a fresh construction context. Independent failures discovered during
// the call are aggregated; a single failure is returned as its concrete
// error type, multiple failures as a *ResolutionError.
func (c *Container) Resolve(key Key) (any, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, &ScopeClosedError{Scope: c.id.String()}
	}

	root := c.root
	cctx := root.ctxPool.Get().(*constructionContext)
	cctx.sink = root.cfg.Sink

	v, err := c.provide(Dependency{Key: key}, cctx)
	errs := cctx.errs
	cctx.reset()
	root.ctxPool.Put(cctx)

	if len(errs) > 0 {
		root.metrics.resolution("error")
		if len(errs) == 1 {
			return nil, errs[0]
		}
		return nil, &ResolutionError{Errors: errs}
	}
	if err != nil {
		root.metrics.resolution("error")
		return nil, err
	}
	root.metrics.resolution("success")
	return v, nil
}

// ResolveAs resolves T through c and type-asserts the result.
func ResolveAs[T any](c *Container, qualifier ...string) (T, error) {
	var zero T
	key := KeyFor[T](qualifier...)
	v, err := c.Resolve(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: key.Type.String(), Got: fmt.Sprintf("%T", v)}
	}
	return typed, nil
}

// provide resolves one dependency: binding lookup (explicit, else JIT or
// synthesized), then scope application. Every error is recorded in the
// construction context exactly once, at its origin.
func (c *Container) provide(dep Dependency, cctx *constructionContext) (any, error) {
	b, err := c.lookupOrSynthesize(dep.Key, cctx)
	if err != nil {
		cctx.report(err)
		return nil, err
	}
	if b.lifetime == LifetimeSingleton {
		return c.provideSingleton(b, dep, cctx)
	}
	v, _, err := c.construct(b, dep, cctx)
	return v, err
}

// provideSingleton applies singleton semantics: the owning scope's cache is
// consulted and populated under the tree's singleton lock, so exactly one
// goroutine constructs while concurrent requesters block. The lock is held
// across construction (coarse, one per scope tree); re-entrant singleton
// work within the same call skips re-acquisition via the context's flag. On
// failure nothing is published, so a later call may attempt again.
func (c *Container) provideSingleton(b *binding, dep Dependency, cctx *constructionContext) (any, error) {
	root := c.root
	release := cctx.acquireTree(root)
	defer release()

	owner := b.owner
	if owner.singletons == nil {
		err := &ScopeClosedError{Scope: owner.id.String()}
		cctx.report(err)
		return nil, err
	}
	if v, ok := owner.singletons[b.id]; ok {
		// A nil may have been published by a requester that permits nil;
		// it is still rejected for everyone who does not.
		if v == nil && !dep.AllowNil {
			nerr := &NullProvidedError{Key: b.key}
			cctx.report(nerr)
			return nil, nerr
		}
		return v, nil
	}

	v, proxied, err := c.construct(b, dep, cctx)
	if err != nil {
		return nil, err
	}
	// A proxied result means this singleton is still being constructed
	// higher up the same chain; the cache is published when that
	// construction finishes, never with the placeholder.
	if !proxied {
		owner.singletons[b.id] = v
		root.metrics.singletonBuilt()
	}
	return v, nil
}

// construct runs the binding's recipe. Re-entering a factory already in
// progress within the same context is a cycle: it yields a deferred handle
// when the requesting dependency can accept one and circular handles are
// enabled, and fails otherwise. Sibling dependency failures accumulate so a
// single call reports everything found in one pass; the first of them still
// short-circuits this construction.
func (c *Container) construct(b *binding, dep Dependency, cctx *constructionContext) (any, bool, error) {
	// A factory that already failed in this call is not re-attempted; the
	// original error stands for every later requester in the same pass.
	if prev, ok := cctx.failures[b.id]; ok {
		return nil, false, prev
	}
	rec, inProgress := cctx.begin(b.id, b.key)
	if inProgress {
		if dep.Deferred && !c.root.cfg.DisallowCircularHandles {
			c.root.metrics.cycleProxied()
			c.root.logDebug("cycle broken with deferred handle", "key", b.key.String())
			return rec.issueHandle(), true, nil
		}
		err := &CircularDependencyError{Key: b.key, Chain: cctx.chainTo(b.key)}
		cctx.report(err)
		return nil, false, err
	}
	cctx.push(b.key)
	defer cctx.pop()

	declared := b.recipe.Dependencies()
	vals := make([]any, len(declared))
	var firstErr error
	for i, d := range declared {
		v, err := b.owner.provide(d, cctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if d.Deferred {
			if h, ok := v.(*Handle); ok {
				vals[i] = h
			} else {
				vals[i] = Direct(v)
			}
			continue
		}
		if v == nil && !d.AllowNil {
			nerr := &NullProvidedError{Key: d.Key}
			cctx.report(nerr)
			if firstErr == nil {
				firstErr = nerr
			}
			continue
		}
		vals[i] = v
	}
	if firstErr != nil {
		cctx.abort(b.id, firstErr)
		return nil, false, firstErr
	}

	inst, err := buildRecipe(b, vals)
	if err != nil {
		perr := &ProvisionError{Key: b.key, Source: b.source, Err: err}
		cctx.report(perr)
		cctx.abort(b.id, perr)
		return nil, false, perr
	}
	if inst == nil && !dep.AllowNil {
		nerr := &NullProvidedError{Key: b.key}
		cctx.report(nerr)
		cctx.abort(b.id, nerr)
		return nil, false, nerr
	}

	cctx.finish(b.id, inst)
	cctx.clear(b.id)
	if fn := c.root.cfg.OnProvision; fn != nil {
		fn(b.key, inst)
	}
	return inst, false, nil
}

// buildRecipe invokes user construction logic, converting panics into errors
// so a faulty recipe cannot tear down the caller.
func buildRecipe(b *binding, deps []any) (inst any, err error) {
	defer func() {
		if r := recover(); r != nil {
			inst = nil
			err = fmt.Errorf("panic during construction: %v", r)
		}
	}()
	return b.recipe.Build(deps)
}
