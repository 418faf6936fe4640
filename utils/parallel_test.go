package utils

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, size := range []int{0, 1, 7, 480, 1081} {
		seen := make([]atomic.Int32, size)
		err := GroupWorkParallel(context.Background(), size, func(from, to int) {
			for i := from; i < to; i++ {
				seen[i].Inc()
			}
		})
		test.That(t, err, test.ShouldBeNil)
		for i := range seen {
			test.That(t, seen[i].Load(), test.ShouldEqual, 1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := atomic.NewBool(false)
	err := GroupWorkParallel(ctx, 10, func(from, to int) { called.Store(true) })
	test.That(t, err, test.ShouldBeError, context.Canceled)
	test.That(t, called.Load(), test.ShouldBeFalse)
}

func TestGroupWorkParallelPanic(t *testing.T) {
	done := atomic.NewInt32(0)
	err := GroupWorkParallel(context.Background(), 100, func(from, to int) {
		if from <= 50 && 50 < to {
			panic("bad row")
		}
		done.Add(int32(to - from))
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "panic")
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad row")
	// the other bands still run to completion
	test.That(t, done.Load(), test.ShouldBeLessThan, 100)
	test.That(t, done.Load(), test.ShouldBeGreaterThanOrEqualTo, 100-(100/ParallelFactor+100%ParallelFactor))

	test.That(t, func() {
		ParallelForEachRow(10, func(y int) {
			if y == 3 {
				panic("bad row")
			}
		})
	}, test.ShouldPanic)
}

func TestParallelForEachRow(t *testing.T) {
	rows := make([]int, 240)
	ParallelForEachRow(len(rows), func(y int) {
		rows[y] = y * 2
	})
	for y, v := range rows {
		test.That(t, v, test.ShouldEqual, y*2)
	}
}

func TestRunInParallel(t *testing.T) {
	count := atomic.NewInt32(0)
	inc := func(ctx context.Context) error {
		count.Inc()
		return nil
	}
	_, err := RunInParallel(context.Background(), []SimpleFunc{inc, inc, inc})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count.Load(), test.ShouldEqual, 3)

	errFunc := func(ctx context.Context) error {
		return errors.New("bad")
	}
	_, err = RunInParallel(context.Background(), []SimpleFunc{inc, errFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bad")

	panicFunc := func(ctx context.Context) error {
		panic(1)
	}
	_, err = RunInParallel(context.Background(), []SimpleFunc{panicFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "panic")
}
