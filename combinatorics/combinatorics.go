// Package combinatorics holds exact binomial coefficients. Populations of a
// hundred tiles overflow 64-bit products quickly, so every count here is a
// big.Int.
package combinatorics

import (
	"math"
	"math/big"

	"gonum.org/v1/gonum/stat/combin"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// Choose returns the number of ways to choose k unordered items from n
// distinct items. Out-of-range k yields 0.
func Choose(k, n int) *big.Int {
	if k < 0 || k > n {
		return new(big.Int)
	}
	if k == 0 || k == n {
		return big.NewInt(1)
	}
	result := big.NewInt(1)
	num := new(big.Int)
	den := new(big.Int)
	for i := 1; i <= k; i++ {
		// result * (n-k+i) is always divisible by i here: after step i the
		// result is C(n-k+i, i).
		result.Mul(result, num.SetInt64(int64(n-k+i)))
		result.Quo(result, den.SetInt64(int64(i)))
	}
	return result
}

// ChooseTable is a precomputed Pascal triangle up to some maximum n.
// Lookups outside the table fall back to Choose. Returned values may be
// shared and must not be modified.
type ChooseTable struct {
	rows [][]*big.Int
}

// NewChooseTable precomputes C(k, n) for 0 <= n <= maxN and
// 0 <= k <= min(n, maxK). A draw never takes more than the draw size from
// one category, so maxK is usually the draw size.
func NewChooseTable(maxN, maxK int) *ChooseTable {
	maxN = max(maxN, 0)
	maxK = max(maxK, 0)
	t := &ChooseTable{rows: make([][]*big.Int, maxN+1)}
	for n := 0; n <= maxN; n++ {
		width := min(n, maxK) + 1
		row := make([]*big.Int, width)
		row[0] = bigOne
		for k := 1; k < width; k++ {
			if k == n {
				row[k] = bigOne
				continue
			}
			row[k] = new(big.Int).Add(t.rows[n-1][k-1], t.rows[n-1][k])
		}
		t.rows[n] = row
	}
	return t
}

// MaxN returns the largest n held in the table.
func (t *ChooseTable) MaxN() int {
	return len(t.rows) - 1
}

// Choose returns C(k, n). The result must not be modified.
func (t *ChooseTable) Choose(k, n int) *big.Int {
	if k < 0 || k > n {
		return bigZero
	}
	if n < len(t.rows) && k < len(t.rows[n]) {
		return t.rows[n][k]
	}
	return Choose(k, n)
}

// NumDraws is the number of ways to split drawSize tiles across the given
// number of categories when no category runs out, i.e. the weak
// compositions C(drawSize+categories-1, categories-1). It is an upper bound
// on how many draws an enumeration emits. It saturates at math.MaxInt once
// the count no longer fits comfortably in an int.
func NumDraws(categories, drawSize int) int {
	if categories <= 0 || drawSize < 0 {
		return 0
	}
	n, k := drawSize+categories-1, categories-1
	if n > 1<<20 || combin.LogGeneralizedBinomial(float64(n), float64(k)) > math.Log(1<<40) {
		return math.MaxInt
	}
	return combin.Binomial(n, k)
}
