package hierarchy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/relit/internal/types"
	"martianoff/relit/relerr"
)

func zoo(t *testing.T) (*Hierarchy, *types.Universe) {
	t.Helper()
	u := types.NewUniverse()
	h := New()
	require.NoError(t, h.Declare(u.MustParse("Dog"), u.MustParse("Animal")))
	require.NoError(t, h.Declare(u.MustParse("Puppy"), u.MustParse("Dog"), u.MustParse("Cute")))
	require.NoError(t, h.Declare(u.MustParse("List<'T>"), u.MustParse("Seq<'T>")))
	require.NoError(t, h.Declare(u.MustParse("Seq<'E>"), u.MustParse("Object")))
	return h, u
}

func TestIsSubtypeOf(t *testing.T) {
	h, u := zoo(t)

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"reflexive", "Dog", "Dog", true},
		{"direct", "Dog", "Animal", true},
		{"transitive", "Puppy", "Animal", true},
		{"second super", "Puppy", "Cute", true},
		{"reverse", "Animal", "Dog", false},
		{"unrelated", "Dog", "Cute", false},
		{"generic binds args", "List<int>", "Seq<int>", true},
		{"generic arg mismatch", "List<int>", "Seq<string>", false},
		{"generic transitive", "List<int>", "Object", true},
		{"undeclared", "Cat", "Animal", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.IsSubtypeOf(u.MustParse(tt.a), u.MustParse(tt.b)))
		})
	}

	assert.False(t, h.IsSubtypeOf(nil, u.MustParse("Animal")))
}

func TestSupertypes(t *testing.T) {
	h, u := zoo(t)

	supers := h.Supertypes(u.MustParse("List<string>"))
	require.Len(t, supers, 1)
	assert.Equal(t, "Seq<string>", supers[0].String())

	assert.Empty(t, h.Supertypes(u.MustParse("Animal")))
	assert.Equal(t, []string{"Dog", "List", "Puppy", "Seq"}, h.Names())
}

func TestDeclareRejectsCycle(t *testing.T) {
	h, u := zoo(t)

	err := h.Declare(u.MustParse("Animal"), u.MustParse("Puppy"))
	require.Error(t, err)
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"Animal", "Puppy", "Dog", "Animal"}, cycle.Cycle)
	assert.Contains(t, err.Error(), "subtype cycle detected: Animal -> Puppy -> Dog -> Animal")

	// Rolled back.
	assert.NoError(t, h.DetectCycles())
	assert.Empty(t, h.Supertypes(u.MustParse("Animal")))
}

func TestDeclareRejectsSelfCycleOnExisting(t *testing.T) {
	h, u := zoo(t)

	err := h.Declare(u.MustParse("Dog"), u.MustParse("Puppy"))
	require.Error(t, err)
	assert.Len(t, h.Supertypes(u.MustParse("Dog")), 1, "previous supertypes kept")
}

func TestDeclareInvalidSub(t *testing.T) {
	h := New()
	u := types.NewUniverse()

	err := h.Declare(u.MustParse("Box<int>"), u.MustParse("Object"))
	var cfg *relerr.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, relerr.TypeConfig, cfg.Type())

	err = h.Declare(u.MustParse("Dog"), nil)
	assert.ErrorAs(t, err, &cfg)
}

func TestConcurrentQueries(t *testing.T) {
	h, u := zoo(t)
	puppy := u.MustParse("Puppy")
	animal := u.MustParse("Animal")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.True(t, h.IsSubtypeOf(puppy, animal))
			}
		}()
	}
	wg.Wait()
}
