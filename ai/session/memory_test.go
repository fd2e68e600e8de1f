package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_AppendBound(t *testing.T) {
	m := NewMemory()

	for i := 0; i < 30; i++ {
		m.Append("s1", Turn{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}

	turns := m.Get("s1")
	require.Len(t, turns, MaxTurns)

	// Oldest dropped first: surviving turns are q10..q29 in order.
	assert.Equal(t, "q10", turns[0].Question)
	assert.Equal(t, "q29", turns[len(turns)-1].Question)
	for i := 1; i < len(turns); i++ {
		assert.True(t, !turns[i].Timestamp.Before(turns[i-1].Timestamp))
	}
}

func TestMemory_UnknownSession(t *testing.T) {
	m := NewMemory()
	turns := m.Get("nonexistent")
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestMemory_ClearIdempotent(t *testing.T) {
	m := NewMemory()
	m.Append("s1", Turn{Question: "q", Answer: "a"})

	m.Clear("s1")
	m.Clear("s1") // second clear must not panic
	assert.Empty(t, m.Get("s1"))
}

func TestMemory_SessionIsolation(t *testing.T) {
	m := NewMemory()
	m.Append("a", Turn{Question: "qa", Answer: "aa"})
	m.Append("b", Turn{Question: "qb", Answer: "ab"})

	require.Len(t, m.Get("a"), 1)
	require.Len(t, m.Get("b"), 1)
	assert.Equal(t, "qa", m.Get("a")[0].Question)
	assert.Equal(t, 2, m.ActiveSessions())
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	m.Append("s1", Turn{Question: "q", Answer: "a"})

	turns := m.Get("s1")
	turns[0].Question = "mutated"

	assert.Equal(t, "q", m.Get("s1")[0].Question)
}

func TestMemory_ConcurrentAppend(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Append(fmt.Sprintf("s%d", n%4), Turn{Question: "q", Answer: "a"})
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		assert.Len(t, m.Get(fmt.Sprintf("s%d", i)), MaxTurns)
	}
}

func TestRenderContext(t *testing.T) {
	var turns []Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, Turn{Question: fmt.Sprintf("q%d", i), Answer: fmt.Sprintf("a%d", i)})
	}

	rendered := RenderContext(turns)

	// Only the last ContextTurns are rendered.
	assert.NotContains(t, rendered, "q3")
	assert.Contains(t, rendered, "q4")
	assert.Contains(t, rendered, "q9")
	assert.Contains(t, rendered, "Assistant: a9")

	assert.Equal(t, "", RenderContext(nil))
}

func TestLastAnswer(t *testing.T) {
	assert.Equal(t, "", LastAnswer(nil))
	turns := []Turn{{Question: "q1", Answer: "a1"}, {Question: "q2", Answer: "¿De qué campaña?"}}
	assert.Equal(t, "¿De qué campaña?", LastAnswer(turns))
}
