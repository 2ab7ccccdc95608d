package scoring

// rng is a seeded 64-bit linear congruential generator using the PCG
// multiplier/increment pair, documented here so the bootstrap interval is
// reproducible across independent builds of this tool from the same seed.
type rng struct {
	state uint64
}

func newRNG(seed int64) *rng {
	return &rng{state: uint64(seed)}
}

func (r *rng) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// intn returns a uniform value in [0, n).
func (r *rng) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}
