package ninelives

// WRAP composes policies sequentially: the first is outermost, each
// delegates to the next. WRAP(a, b, c) produces a∘b∘c — a processes the
// call first, invoking b when it chooses to, which invokes c, which
// invokes the terminal Call. This is how the canonical stack order
// (Timeout ⊙ Retry ⊙ Bulkhead ⊙ CircuitBreaker) is expressed:
//
//	stack := WRAP(TimeoutPolicy[T](t), RetryPolicy[T](r), BulkheadPolicy[T](b), CircuitBreakerPolicy[T](cb))
//
// WRAP with zero members is the identity policy. Composition is
// associative: WRAP(WRAP(a, b), c) and WRAP(a, WRAP(b, c)) produce the
// same effective chain as WRAP(a, b, c).
func WRAP[T any](policies ...Policy[T]) Policy[T] {
	return func(next Call[T]) Call[T] {
		for i := len(policies) - 1; i >= 0; i-- {
			next = policies[i](next)
		}

		return next
	}
}

// wrapCall is a small helper some combinators use to bind a Policy to a
// terminal Call without going through [Executor].
func wrapCall[T any](p Policy[T], next Call[T]) Call[T] {
	if p == nil {
		return next
	}

	return p(next)
}
