package util

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-test/deep"
)

func TestParallelVisitsEveryInput(t *testing.T) {
	inputs := []string{"a", "b", "c", "d", "e"}
	out := make([]string, len(inputs))

	err := Parallel(context.Background(), inputs, 2, func(_ context.Context, i int, s string) error {
		out[i] = strings.ToUpper(s)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(out, []string{"A", "B", "C", "D", "E"}); diff != nil {
		t.Error(diff)
	}
}

func TestParallelJoinsErrors(t *testing.T) {
	var calls atomic.Int32
	errOdd := errors.New("odd")

	err := Parallel(context.Background(), []int{1, 2, 3, 4}, 0, func(_ context.Context, _ int, n int) error {
		calls.Add(1)
		if n%2 == 1 {
			return errOdd
		}
		return nil
	})
	if calls.Load() != 4 {
		t.Fatalf("calls = %d, want every input visited", calls.Load())
	}
	if !errors.Is(err, errOdd) || strings.Count(err.Error(), "odd") != 2 {
		t.Fatalf("err = %v", err)
	}
}

func TestParallelCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Parallel(ctx, []int{1, 2, 3}, 1, func(context.Context, int, int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
