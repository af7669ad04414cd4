package bindkit

type recordState uint8

const (
	recordNotStarted recordState = iota
	recordInProgress
	recordFinished
)

// constructionRecord tracks one factory within one construction context.
// Its state moves not-started -> in-progress -> finished, monotonically,
// at most once per context.
type constructionRecord struct {
	key     Key
	state   recordState
	handles []*Handle
}

// issueHandle returns a fresh unresolved handle standing in for the record's
// instance. All issued handles are bound when the record finishes.
func (r *constructionRecord) issueHandle() *Handle {
	h := &Handle{key: r.key}
	r.handles = append(r.handles, h)
	return h
}

// constructionContext is the per-resolution-call state used to detect and
// break construction cycles. One context is created (or taken from the pool)
// per top-level Resolve call; it is never shared across goroutines.
type constructionContext struct {
	records  map[uint64]*constructionRecord
	failures map[uint64]error
	chain    []Key
	errs     []error
	sink     ErrorSink

	// treeLocked marks that this call already holds the scope tree's
	// singleton lock, so nested singleton work must not re-acquire it.
	treeLocked bool
}

func newConstructionContext() *constructionContext {
	return &constructionContext{
		records:  make(map[uint64]*constructionRecord, 8),
		failures: make(map[uint64]error),
		chain:    make([]Key, 0, 8),
	}
}

// begin marks the factory in progress and returns its record. The second
// result reports whether the factory was already in progress, i.e. the call
// re-entered a construction and a cycle exists.
func (c *constructionContext) begin(id uint64, key Key) (*constructionRecord, bool) {
	rec, ok := c.records[id]
	if !ok {
		rec = &constructionRecord{key: key}
		c.records[id] = rec
	}
	if rec.state == recordInProgress {
		return rec, true
	}
	rec.state = recordInProgress
	return rec, false
}

// finish marks the record finished and binds every handle issued for it to
// the real instance, exactly once.
func (c *constructionContext) finish(id uint64, instance any) {
	rec, ok := c.records[id]
	if !ok || rec.state != recordInProgress {
		return
	}
	rec.state = recordFinished
	for _, h := range rec.handles {
		h.bind(instance)
	}
	rec.handles = nil
}

// clear drops a finished record so the same factory can be constructed again
// later in the call (unscoped bindings) and so pooled contexts start clean.
func (c *constructionContext) clear(id uint64) {
	if rec, ok := c.records[id]; ok && rec.state == recordFinished {
		delete(c.records, id)
	}
}

// abort reverts a failed construction to not-started and remembers the
// failure, so the same factory is not re-attempted within this call.
func (c *constructionContext) abort(id uint64, err error) {
	delete(c.records, id)
	c.failures[id] = err
}

func (c *constructionContext) push(key Key) {
	c.chain = append(c.chain, key)
}

func (c *constructionContext) pop() {
	c.chain = c.chain[:len(c.chain)-1]
}

// chainTo copies the dependency chain from the first occurrence of key and
// appends key again, so the reported cycle starts and ends at the same node
// even when the resolution entered above it.
func (c *constructionContext) chainTo(key Key) []Key {
	start := 0
	for i, k := range c.chain {
		if k == key {
			start = i
			break
		}
	}
	out := make([]Key, 0, len(c.chain)-start+1)
	out = append(out, c.chain[start:]...)
	return append(out, key)
}

// report records a structured error, forwarding it to the configured sink.
func (c *constructionContext) report(err error) {
	c.errs = append(c.errs, err)
	if c.sink != nil {
		c.sink.Record(err)
	}
}

// acquireTree enters the scope tree's singleton lock unless this call
// already holds it. The returned func undoes exactly what was done.
func (c *constructionContext) acquireTree(root *Container) func() {
	if c.treeLocked {
		return func() {}
	}
	root.treeMu.Lock()
	c.treeLocked = true
	return func() {
		c.treeLocked = false
		root.treeMu.Unlock()
	}
}

// reset clears all per-call state before the context returns to the pool.
func (c *constructionContext) reset() {
	for id := range c.records {
		delete(c.records, id)
	}
	for id := range c.failures {
		delete(c.failures, id)
	}
	c.chain = c.chain[:0]
	c.errs = nil
	c.sink = nil
	c.treeLocked = false
}
