package stats

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterLog(t *testing.T) {
	c := New()

	c.CounterLog([]string{"analysis"}, "archived")
	c.CounterLog([]string{"analysis"}, "archived")
	c.CounterLog([]string{"analysis"}, "dropped")
	c.CounterLog([]string{"analysis", "llm"}, "calls")

	counters := c.GetClassifiedCounter([]string{"analysis"})
	assert.Equal(t, 2, counters["archived"])
	assert.Equal(t, 1, counters["dropped"])

	nested := c.GetClassifiedCounter([]string{"analysis", "llm"})
	assert.Equal(t, 1, nested["calls"])
}

func TestGetClassifiedCounter_UnknownPath(t *testing.T) {
	c := New()
	assert.Empty(t, c.GetClassifiedCounter([]string{"nothing", "here"}))
}

func TestGetClassifiedCounter_ReturnsCopy(t *testing.T) {
	c := New()
	c.CounterLog([]string{"a"}, "n")

	got := c.GetClassifiedCounter([]string{"a"})
	got["n"] = 99
	assert.Equal(t, 1, c.GetClassifiedCounter([]string{"a"})["n"])
}

func TestSubItemLogAndDump(t *testing.T) {
	c := New()
	c.CounterLog([]string{"archival"}, "archived")
	c.SubItemLog([]string{"archival"}, "item-1", "error")
	c.SubItemLog([]string{"archival"}, "item-2", "error")

	dump := c.Dump()
	assert.Contains(t, dump, "archival/")
	assert.Contains(t, dump, "archived: 1")
	assert.Contains(t, dump, "[error] item-1, item-2")
}

func TestReset(t *testing.T) {
	c := New()
	c.CounterLog([]string{"a"}, "n")
	c.Reset()
	assert.Empty(t, c.GetClassifiedCounter([]string{"a"}))
	assert.Empty(t, c.Dump())
}

func TestConcurrentLogging(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.CounterLog([]string{"worker", fmt.Sprintf("w%d", n)}, "processed")
				c.CounterLog([]string{"worker"}, "total")
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 800, c.GetClassifiedCounter([]string{"worker"})["total"])
	assert.Equal(t, 100, c.GetClassifiedCounter([]string{"worker", "w0"})["processed"])
}

func TestDump_Deterministic(t *testing.T) {
	build := func() *ResourceCounter {
		c := New()
		c.CounterLog([]string{"b"}, "z")
		c.CounterLog([]string{"a"}, "y")
		c.CounterLog([]string{"a"}, "x")
		return c
	}
	assert.Equal(t, build().Dump(), build().Dump())
}
