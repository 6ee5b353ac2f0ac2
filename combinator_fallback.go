package ninelives

import "context"

// FALLBACK tries primary; on any failure that surfaces past primary (not
// a local retry failure primary already swallowed), it re-invokes the
// same request against secondary. Secondary's success or failure is the
// final result — primary's error is not carried, only recorded in
// telemetry by whatever primitive inside primary produced it.
//
// FALLBACK requires the terminal request to be duplicable: both primary
// and secondary are bound to the same next Call and may each invoke it.
func FALLBACK[T any](primary, secondary Policy[T]) Policy[T] {
	return func(next Call[T]) Call[T] {
		primaryCall := wrapCall(primary, next)
		secondaryCall := wrapCall(secondary, next)

		return func(ctx context.Context) (T, error) {
			v, err := primaryCall(ctx)
			if err == nil {
				return v, nil
			}

			return secondaryCall(ctx)
		}
	}
}
