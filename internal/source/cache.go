package source

// cacheCell is a one-value Unset/Computed state machine for a lazily
// computed artifact. Invalidation is a pure rule: callers holding the
// hot-reload flag reset before reading, so staleness cannot survive an
// access.
type cacheCell[T any] struct {
	val      T
	computed bool
}

func (c *cacheCell[T]) set(v T) {
	c.val = v
	c.computed = true
}

func (c *cacheCell[T]) reset() {
	var zero T
	c.val = zero
	c.computed = false
}

func (c *cacheCell[T]) ok() bool { return c.computed }

func (c *cacheCell[T]) value() T { return c.val }
