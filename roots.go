package symcore

import (
	"math/big"
)

// squarefreeTrialLimit bounds the trial division in Squarefree. Square
// factors built only from primes above the limit are found when the
// remaining cofactor is itself a perfect square.
const squarefreeTrialLimit = 1 << 16

// Root returns the exact k-th root of an exact real number when one exists.
// Negative values have odd roots only.
func Root(a Number, k uint) (Number, bool) {
	if k == 0 || !a.IsReal() || !a.IsExact() {
		return Number{}, false
	}
	if k == 1 {
		return a, true
	}
	neg := a.Sign() < 0
	if neg && k%2 == 0 {
		return Number{}, false
	}
	r := a.Abs().rat()
	num, ok := intRoot(r.Num(), k)
	if !ok {
		return Number{}, false
	}
	den, ok := intRoot(r.Denom(), k)
	if !ok {
		return Number{}, false
	}
	out := RatBig(new(big.Rat).SetFrac(num, den))
	if neg {
		out = out.Neg()
	}
	return out, true
}

// intRoot computes floor(n^(1/k)) by Newton iteration and reports whether
// it is exact. n must be non-negative.
func intRoot(n *big.Int, k uint) (*big.Int, bool) {
	if n.Sign() == 0 || n.Cmp(big.NewInt(1)) == 0 {
		return new(big.Int).Set(n), true
	}
	if k == 2 {
		s := new(big.Int).Sqrt(n)
		return s, new(big.Int).Mul(s, s).Cmp(n) == 0
	}
	kk := big.NewInt(int64(k))
	km1 := big.NewInt(int64(k - 1))
	// start above the root: 2^ceil(bitlen/k)
	x := new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen())/k+1)
	for {
		// y = ((k-1)*x + n / x^(k-1)) / k
		p := new(big.Int).Exp(x, km1, nil)
		y := new(big.Int).Quo(n, p)
		y.Add(y, new(big.Int).Mul(km1, x))
		y.Quo(y, kk)
		if y.Cmp(x) >= 0 {
			break
		}
		x = y
	}
	return x, new(big.Int).Exp(x, kk, nil).Cmp(n) == 0
}

// Squarefree splits a positive integer n into square^2 * rest where rest has
// no square factor found by trial division up to squarefreeTrialLimit.
func Squarefree(n *big.Int) (square, rest *big.Int) {
	square, rest = big.NewInt(1), big.NewInt(1)
	if n.Sign() <= 0 {
		return square, new(big.Int).Set(n)
	}
	rem := new(big.Int).Set(n)
	p := big.NewInt(2)
	q, m := new(big.Int), new(big.Int)
	for p.Int64() <= squarefreeTrialLimit {
		if new(big.Int).Mul(p, p).Cmp(rem) > 0 {
			break
		}
		count := 0
		for {
			q.QuoRem(rem, p, m)
			if m.Sign() != 0 {
				break
			}
			rem.Set(q)
			count++
		}
		if count > 0 {
			square.Mul(square, new(big.Int).Exp(p, big.NewInt(int64(count/2)), nil))
			if count%2 == 1 {
				rest.Mul(rest, p)
			}
		}
		if p.Int64() == 2 {
			p.SetInt64(3)
		} else {
			p.Add(p, big.NewInt(2))
		}
	}
	if rem.Cmp(big.NewInt(1)) > 0 {
		if s, ok := intRoot(rem, 2); ok {
			square.Mul(square, s)
		} else {
			rest.Mul(rest, rem)
		}
	}
	return square, rest
}
