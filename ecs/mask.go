package ecs

// bitmask256 represents a set of up to 256 component bit ids. Entities carry
// one for their current component set and query plans carry one for the
// required and the excluded types.
type bitmask256 [4]uint64

func (m *bitmask256) set(bit uint8) {
	m[bit>>6] |= uint64(1) << (bit & 63)
}

func (m *bitmask256) unset(bit uint8) {
	m[bit>>6] &^= uint64(1) << (bit & 63)
}

func (m bitmask256) has(bit uint8) bool {
	return m[bit>>6]&(uint64(1)<<(bit&63)) != 0
}

// contains reports whether every bit of sub is set in m.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

// intersects reports whether m and other share any bit.
func (m bitmask256) intersects(other bitmask256) bool {
	return (m[0]&other[0] != 0) ||
		(m[1]&other[1] != 0) ||
		(m[2]&other[2] != 0) ||
		(m[3]&other[3] != 0)
}
