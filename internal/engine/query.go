package engine

import (
	"log/slog"
	"sort"
)

// QueryFunc produces a query result. Like LazyFunc it must only read.
type QueryFunc func(e *Engine) []*Entity

type query struct {
	fn      QueryFunc
	result  []*Entity
	version int64
}

// DuplicatePolicy decides what happens when an action or query name is
// registered twice.
type DuplicatePolicy int

const (
	// DuplicateOverwrite replaces the earlier registration (the default).
	DuplicateOverwrite DuplicatePolicy = iota

	// DuplicateError rejects the second registration.
	DuplicateError
)

// String returns the config spelling of the policy.
func (p DuplicatePolicy) String() string {
	if p == DuplicateError {
		return "error"
	}
	return "overwrite"
}

// RegisterQuery stores a named producer and computes its initial value.
func (e *Engine) RegisterQuery(name string, fn QueryFunc) error {
	if _, exists := e.queries[name]; exists {
		if e.duplicates == DuplicateError {
			return &RuntimeError{
				Code:    ErrCodeDuplicateQuery,
				Message: "query " + name + " is already registered",
			}
		}
		slog.Debug("query overwritten", "query", name)
	}
	e.addQuery(name, fn)
	return e.requestTick(e.baseContext())
}

// addQuery registers without policy checks or ticking. Used for the
// automatic per-type queries.
func (e *Engine) addQuery(name string, fn QueryFunc) {
	e.clock.Next()
	q := &query{fn: fn}
	e.queries[name] = q
	q.version = e.clock.Current()
	q.result = fn(e)
}

// Query returns the memoized result of a named query, recomputing it only
// when the version has moved. Unknown names log a warning and return an
// empty list. The result shares the memo; its capacity is clipped so an
// append by the caller copies instead of writing into it.
func (e *Engine) Query(name string) []*Entity {
	q, ok := e.queries[name]
	if !ok {
		slog.Warn("unknown query", "query", name)
		return []*Entity{}
	}
	if e.clock.Stale(q.version) {
		q.version = e.clock.Current()
		q.result = q.fn(e)
	}
	return q.result[:len(q.result):len(q.result)]
}

// Queries returns registered query names in sorted order.
func (e *Engine) Queries() []string {
	names := make([]string, 0, len(e.queries))
	for name := range e.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
