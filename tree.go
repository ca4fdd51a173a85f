package sphincsplus

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// buildLevels builds every level of a binary hash tree bottom-up from
// leaves using pair(a,b,publicSeed) = hash_array(a,b,publicSeed) — the
// same pairing rule shared by the Merkle signer and FORS. len(leaves)
// must be a power of two; levels[0] is the leaves themselves and
// levels[len-1] is the single-element root level.
func buildLevels(leaves [][32]byte, publicSeed [32]byte) [][][32]byte {
	levels := make([][][32]byte, 0, 32)
	levels = append(levels, leaves)
	cur := leaves
	for len(cur) > 1 {
		cur = pairKeys(cur, publicSeed)
		levels = append(levels, cur)
	}
	return levels
}

// authPathFromLevels reads off the sibling at each level along the path
// from leafIdx to the root: at level ℓ, sibling = nodes[ℓ][idx ^ 1],
// then idx <- idx / 2.
func authPathFromLevels(levels [][][32]byte, leafIdx uint64) [][32]byte {
	height := len(levels) - 1
	path := make([][32]byte, height)
	idx := leafIdx
	for l := 0; l < height; l++ {
		path[l] = levels[l][idx^1]
		idx >>= 1
	}
	return path
}

// verifyAuthPath recomputes the root implied by leaf, its index and an
// authentication path, using bit 0 of the running index at each level to
// choose left/right placement of the sibling.
func verifyAuthPath(leaf [32]byte, leafIdx uint64, path [][32]byte, publicSeed [32]byte) [32]byte {
	cur := leaf
	idx := leafIdx
	for _, sibling := range path {
		if idx&1 == 0 {
			cur = hashArray(cur[:], sibling[:], publicSeed[:])
		} else {
			cur = hashArray(sibling[:], cur[:], publicSeed[:])
		}
		idx >>= 1
	}
	return cur
}

// generateLeaves computes gen(i) for i in [0,n) using a bounded worker
// pool, and returns the results in order. Errors from individual workers
// are aggregated with hashicorp/go-multierror rather than short-circuited,
// reporting every failure from a batch of concurrent subtree operations
// rather than just the first. Leaf generation may run in parallel as
// long as the order leaves are later concatenated into hash_array stays
// fixed; writing directly into out[i] (rather than appending from
// workers) preserves that order regardless of completion order.
func generateLeaves(workers, n int, gen func(i int) ([32]byte, error)) ([][32]byte, error) {
	out := make([][32]byte, n)
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs *multierror.Error

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			v, err := gen(i)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				continue
			}
			out[i] = v
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if errs != nil {
		return nil, errs.ErrorOrNil()
	}
	return out, nil
}
