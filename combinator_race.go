package ninelives

import "context"

// raceResult carries one branch's outcome back to the selecting goroutine,
// tagged with which branch produced it so a joined failure can attribute
// each error to the right side regardless of arrival order.
type raceResult[T any] struct {
	value  T
	err    error
	isLeft bool
}

// RACE invokes left and right concurrently against independently bound
// (duplicated) requests. The first branch to succeed wins; the losing
// branch's context is cancelled, though RACE does not wait for it to
// observe the cancellation before returning. If both branches fail, RACE
// returns a [CustomFailure] wrapping a [RaceFailure] carrying both errors.
//
// RACE makes no attempt to serialize access to any resource the two
// branches might share — that is the caller's concern.
func RACE[T any](left, right Policy[T]) Policy[T] {
	return func(next Call[T]) Call[T] {
		leftCall := wrapCall(left, next)
		rightCall := wrapCall(right, next)

		return func(ctx context.Context) (T, error) {
			var zero T

			raceCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			results := make(chan raceResult[T], 2)

			run := func(call Call[T], isLeft bool) {
				v, err := call(raceCtx)
				results <- raceResult[T]{value: v, err: err, isLeft: isLeft}
			}

			go run(leftCall, true)
			go run(rightCall, false)

			first := <-results
			if first.err == nil {
				cancel()
				return first.value, nil
			}

			second := <-results
			if second.err == nil {
				return second.value, nil
			}

			raceFailure := &RaceFailure{}
			for _, r := range [2]raceResult[T]{first, second} {
				if r.isLeft {
					raceFailure.Left = r.err
				} else {
					raceFailure.Right = r.err
				}
			}

			return zero, CustomFailure(raceFailure)
		}
	}
}
