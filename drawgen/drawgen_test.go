package drawgen

import (
	"fmt"
	"testing"

	"github.com/matryer/is"
	"pgregory.net/rapid"

	"github.com/bagodds/bagodds/combinatorics"
	"github.com/bagodds/bagodds/tilemapping"
)

type fataler interface {
	Fatal(args ...any)
}

func population(t fataler, counts ...int) *tilemapping.Population {
	labels := make([]string, len(counts))
	for i := range counts {
		labels[i] = fmt.Sprintf("C%d", i)
	}
	p, err := tilemapping.NewPalette(labels)
	if err != nil {
		t.Fatal(err)
	}
	pop, err := tilemapping.NewPopulation(p, counts)
	if err != nil {
		t.Fatal(err)
	}
	return pop
}

func TestGenerateAzul(t *testing.T) {
	is := is.New(t)
	pop := population(t, 20, 20, 20, 20, 20)
	draws, err := Generate(pop, 4)
	is.NoErr(err)
	is.Equal(len(draws), 70)
	is.Equal(len(draws), combinatorics.NumDraws(5, 4))
	// fixed order: first category takes ascending counts
	is.Equal(draws[0], tilemapping.Draw{0, 0, 0, 0, 4})
	is.Equal(draws[1], tilemapping.Draw{0, 0, 0, 1, 3})
	is.Equal(draws[len(draws)-1], tilemapping.Draw{4, 0, 0, 0, 0})
}

func TestGenerateRespectsAvailability(t *testing.T) {
	is := is.New(t)
	pop := population(t, 1, 0, 2)
	draws, err := Generate(pop, 2)
	is.NoErr(err)
	is.Equal(draws, []tilemapping.Draw{{0, 0, 2}, {1, 0, 1}})
}

func TestTailIsZeroedAfterEarlyFinish(t *testing.T) {
	is := is.New(t)
	pop := population(t, 3, 3, 3)
	draws, err := Generate(pop, 2)
	is.NoErr(err)
	is.Equal(draws, []tilemapping.Draw{
		{0, 0, 2}, {0, 1, 1}, {0, 2, 0},
		{1, 0, 1}, {1, 1, 0},
		{2, 0, 0},
	})
}

func TestEdgeSizes(t *testing.T) {
	is := is.New(t)
	pop := population(t, 2, 1)

	draws, err := Generate(pop, 0)
	is.NoErr(err)
	is.Equal(draws, []tilemapping.Draw{{0, 0}})

	draws, err = Generate(pop, 4)
	is.NoErr(err)
	is.Equal(len(draws), 0)

	draws, err = Generate(pop, -1)
	is.NoErr(err)
	is.Equal(len(draws), 0)

	draws, err = Generate(pop, 3)
	is.NoErr(err)
	is.Equal(draws, []tilemapping.Draw{{2, 1}})
}

func TestEachStops(t *testing.T) {
	is := is.New(t)
	pop := population(t, 20, 20, 20, 20, 20)
	n := 0
	Each(pop, 4, func(tilemapping.Draw) bool {
		n++
		return n < 10
	})
	is.Equal(n, 10)

	n = 0
	for range All(pop, 4) {
		n++
		if n == 3 {
			break
		}
	}
	is.Equal(n, 3)
}

func TestBranchesCoverEnumeration(t *testing.T) {
	is := is.New(t)
	pop := population(t, 2, 5, 1, 0, 3)
	all, err := Generate(pop, 4)
	is.NoErr(err)

	var fromBranches []tilemapping.Draw
	branches := Branches(pop, 4)
	is.Equal(branches, []int{0, 1, 2})
	for _, b := range branches {
		EachInBranch(pop, 4, b, func(d tilemapping.Draw) bool {
			fromBranches = append(fromBranches, d.Copy())
			return true
		})
	}
	is.Equal(fromBranches, all)

	// out of range branch emits nothing
	n := 0
	EachInBranch(pop, 4, 3, func(tilemapping.Draw) bool { n++; return true })
	is.Equal(n, 0)
}

func TestGenerateRefusesOverBudget(t *testing.T) {
	is := is.New(t)
	counts := make([]int, 40)
	for i := range counts {
		counts[i] = 100
	}
	pop := population(t, counts...)
	_, err := GenerateWithBudget(pop, 40, 1e-12)
	is.Equal(err, ErrTooManyDraws)
}

// bruteCount counts draws by walking every per-category assignment.
func bruteCount(counts []int, size int) int {
	if len(counts) == 0 {
		if size == 0 {
			return 1
		}
		return 0
	}
	n := 0
	for take := 0; take <= counts[0] && take <= size; take++ {
		n += bruteCount(counts[1:], size-take)
	}
	return n
}

func TestGenerateUnknownMemory(t *testing.T) {
	is := is.New(t)
	saved := totalMemory
	totalMemory = func() uint64 { return 0 }
	defer func() { totalMemory = saved }()

	is.True(MaxMaterialized(5, DefaultMemoryFraction) > 0)
	draws, err := Generate(population(t, 20, 20, 20, 20, 20), 4)
	is.NoErr(err)
	is.Equal(len(draws), 70)
}

func TestPropertyDrawsAreValidAndDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOfN(rapid.IntRange(0, 8), 1, 6).Draw(t, "counts")
		size := rapid.IntRange(0, 10).Draw(t, "size")
		pop := population(t, counts...)

		seen := map[string]bool{}
		Each(pop, size, func(d tilemapping.Draw) bool {
			if d.Total() != size {
				t.Fatalf("draw %v totals %d, want %d", d, d.Total(), size)
			}
			for i, n := range d {
				if n < 0 || n > counts[i] {
					t.Fatalf("draw %v exceeds availability %v", d, counts)
				}
			}
			key := fmt.Sprint(d)
			if seen[key] {
				t.Fatalf("draw %v emitted twice", d)
			}
			seen[key] = true
			return true
		})
		exp := 0
		if pop.Total() >= size {
			exp = bruteCount(counts, size)
		}
		if len(seen) != exp {
			t.Fatalf("got %d draws, want %d", len(seen), exp)
		}
		if len(seen) > combinatorics.NumDraws(len(counts), size) {
			t.Fatalf("%d draws exceeds the weak composition bound", len(seen))
		}
	})
}
