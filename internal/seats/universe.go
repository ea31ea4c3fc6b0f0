package seats

import "strconv"

// Universe is the full ordered set of seat identifiers for a transport
// category. It is fixed per category and immutable for the lifetime of a
// query; availability results preserve its order.
type Universe []string

// NewUniverse enumerates prefix1..prefixN, e.g. S1..S100.
func NewUniverse(prefix string, size int) Universe {
	u := make(Universe, size)
	for i := range u {
		u[i] = prefix + strconv.Itoa(i+1)
	}
	return u
}

// Minus returns the universe with the given seats removed, keeping order.
func (u Universe) Minus(taken map[string]bool) []string {
	available := make([]string, 0, len(u))
	for _, seat := range u {
		if !taken[seat] {
			available = append(available, seat)
		}
	}
	return available
}
