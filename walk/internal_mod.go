package walk

// nonNegativeMod returns a%m normalised into [0,m), fixing the adjacency bug
// noted for this class of controller: Go's % keeps the sign of the dividend,
// so a plain a%m for negative a returns a negative result.
func nonNegativeMod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
