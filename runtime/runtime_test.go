package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitForSucceedsWithinTimeout(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	}, time.Second, 5*time.Millisecond, "condition")
	require.NoError(t, err)
	require.GreaterOrEqual(t, calls, 3)
}

func TestWaitForTimesOut(t *testing.T) {
	err := WaitFor(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	}, 20*time.Millisecond, 5*time.Millisecond, "never")
	require.Error(t, err)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, "never", te.Condition)
}

func TestWaitForPropagatesPredicateError(t *testing.T) {
	boom := errBoom{}
	err := WaitFor(context.Background(), func(context.Context) (bool, error) {
		return false, boom
	}, time.Second, 5*time.Millisecond, "x")
	require.ErrorIs(t, err, boom)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
