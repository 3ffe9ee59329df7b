package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AssignStartsAfterNarrator(t *testing.T) {
	r := NewRegistry(DefaultPool)

	assert.Equal(t, DefaultPool[0], r.Narrator())
	assert.Equal(t, DefaultPool[1], r.Assign("Maya"))
	assert.Equal(t, DefaultPool[2], r.Assign("Jon"))
	assert.Equal(t, DefaultPool[1], r.Assign("Maya"), "existing binding is reused")
	assert.Equal(t, DefaultPool[2], r.Assign("Jon"))
	assert.Equal(t, DefaultPool[3], r.Assign("Ravi"), "rebinding does not advance the index")
}

func TestRegistry_GenericLabels(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, "Character 1", r.NextGenericLabel())
	assert.Equal(t, "Character 2", r.NextGenericLabel())
}

func TestRegistry_SeparateDocumentsAreIsolated(t *testing.T) {
	a := AnalyzeWithPool("Jon (sad): one\nMaya (sad): two", DefaultPool)
	b := AnalyzeWithPool("Maya (sad): two", DefaultPool)

	assert.Equal(t, DefaultPool[2], a[1].Voice)
	assert.Equal(t, DefaultPool[1], b[0].Voice)
}

func TestRegistry_CustomPool(t *testing.T) {
	pool := []Voice{"n", "a", "b"}
	r := NewRegistry(pool)
	assert.Equal(t, Voice("a"), r.Assign("x"))
	assert.Equal(t, Voice("b"), r.Assign("y"))
	assert.Equal(t, Voice("n"), r.Assign("z"))
	assert.Equal(t, Voice("a"), r.Assign("w"))
}
