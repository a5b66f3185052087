package reactive

import (
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell_SetNotifiesOnChange(t *testing.T) {
	c := NewCell("")
	var got []string
	cancel := c.Subscribe(func(v string) { got = append(got, v) })

	assert.True(t, c.Set("a"))
	assert.False(t, c.Set("a"), "equal write must be a no-op")
	assert.True(t, c.Set("b"))
	assert.Equal(t, []string{"a", "b"}, got)

	cancel()
	c.Set("c")
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "c", c.Get())
}

func TestCellFunc_SliceEquality(t *testing.T) {
	c := NewCellFunc([]string{"a"}, slices.Equal[[]string])
	var calls int
	c.Subscribe(func([]string) { calls++ })

	c.Set([]string{"a"})
	assert.Equal(t, 0, calls)

	changed := c.Update(func(cur []string) []string { return append(slices.Clone(cur), "b") })
	assert.True(t, changed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"a", "b"}, c.Get())
}

func TestCell_NilEqualAlwaysNotifies(t *testing.T) {
	c := NewCellFunc(0, nil)
	var calls int
	c.Subscribe(func(int) { calls++ })
	c.Set(0)
	c.Set(0)
	assert.Equal(t, 2, calls)
}

func TestCell_SubscribersInOrder(t *testing.T) {
	c := NewCell(0)
	var order []string
	c.Subscribe(func(int) { order = append(order, "first") })
	cancelSecond := c.Subscribe(func(int) { order = append(order, "second") })
	c.Subscribe(func(int) { order = append(order, "third") })

	c.Set(1)
	cancelSecond()
	cancelSecond()
	c.Set(2)

	assert.Equal(t, []string{"first", "second", "third", "first", "third"}, order)
}

func TestEffect_RunsImmediatelyAndOnChange(t *testing.T) {
	a := NewCell(1)
	b := NewCell("x")
	var runs []string

	e := NewEffect(func() func() {
		runs = append(runs, b.Get())
		return nil
	}, a, b)
	defer e.Dispose()

	a.Set(2)
	b.Set("y")
	b.Set("y")
	assert.Equal(t, []string{"x", "x", "y"}, runs)
}

func TestEffect_CleanupBeforeNextRun(t *testing.T) {
	sel := NewCell("")
	var log []string

	e := NewEffect(func() func() {
		v := sel.Get()
		log = append(log, "run "+v)
		return func() { log = append(log, "cleanup "+v) }
	}, sel)

	sel.Set("a")
	sel.Set("b")
	e.Dispose()
	e.Dispose()
	sel.Set("c")

	assert.Equal(t, []string{
		"run ",
		"cleanup ", "run a",
		"cleanup a", "run b",
		"cleanup b",
	}, log)
}

func TestEffect_WriteFromOwnBodyIsCoalesced(t *testing.T) {
	ids := NewCellFunc([]string{"w1", "w2"}, slices.Equal[[]string])
	sel := NewCell("")
	var runs int

	e := NewEffect(func() func() {
		runs++
		if sel.Get() == "" && len(ids.Get()) > 0 {
			sel.Set(ids.Get()[0])
		}
		return nil
	}, ids, sel)
	defer e.Dispose()

	assert.Equal(t, "w1", sel.Get())
	assert.Equal(t, 2, runs, "self-triggered change runs exactly once more")

	ids.Set([]string{"w2"})
	assert.Equal(t, "w1", sel.Get(), "selection is not re-derived once set")
}

func TestEffect_RecoversAfterPanic(t *testing.T) {
	c := NewCell(0)
	var runs int

	e := NewEffect(func() func() {
		runs++
		if c.Get() == 1 {
			panic("boom")
		}
		return nil
	}, c)
	defer e.Dispose()

	assert.Panics(t, func() { c.Set(1) })
	assert.Equal(t, 2, runs)

	c.Set(2)
	assert.Equal(t, 3, runs, "the effect keeps running after a panic")

	e.Dispose()
	c.Set(3)
	assert.Equal(t, 3, runs)
}

func TestEffect_NeverConcurrent(t *testing.T) {
	c := NewCell(0)
	var active, maxActive, runs atomic.Int32

	e := NewEffect(func() func() {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		active.Add(-1)
		return nil
	}, c)
	defer e.Dispose()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Set(v)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), maxActive.Load())
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestEffect_DisposeFromOwnBody(t *testing.T) {
	c := NewCell(0)
	var e *Effect
	var cleanups int
	e = NewEffect(func() func() {
		if c.Get() == 1 {
			e.Dispose()
		}
		return func() { cleanups++ }
	}, c)

	c.Set(1)
	assert.Equal(t, 2, cleanups, "cleanup of the first run and of the disposing run")
	c.Set(2)
	assert.Equal(t, 2, cleanups)
}
