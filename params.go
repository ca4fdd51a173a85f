package sphincsplus

import "fmt"

// Params fixes the four integers that determine the security level,
// signature size and signing cost of a SPHINCS+ instance:
// K FORS trees of height A, and a hypertree of Layers Merkle trees each
// of height TreeHeight.
type Params struct {
	K          uint32
	A          uint32
	Layers     uint32
	TreeHeight uint32
}

func (p Params) String() string {
	return fmt.Sprintf("SPX-k%d-a%d-l%d-h%d", p.K, p.A, p.Layers, p.TreeHeight)
}

// MaxLeaves returns 2^(Layers*TreeHeight), the total number of hypertree
// leaves (and therefore the total number of signatures addressable
// before an index would wrap).
func (p Params) MaxLeaves() uint64 {
	return uint64(1) << (p.Layers * p.TreeHeight)
}

// ForsLeavesPerTree returns 2^A, the number of secret leaves owned by
// each of the K FORS subtrees.
func (p Params) ForsLeavesPerTree() uint64 {
	return uint64(1) << p.A
}

// validate checks that the parameters describe a constructible instance.
func (p Params) validate() error {
	if p.K == 0 {
		return fmt.Errorf("K must be positive")
	}
	if p.A == 0 || p.A > 16 {
		return fmt.Errorf("A must be in [1,16]: message_to_indices packs each window into a 24-bit super-word, and a window of at most 16 bits fits it at every byte alignment")
	}
	if p.Layers == 0 {
		return fmt.Errorf("Layers must be positive")
	}
	if p.TreeHeight == 0 || p.TreeHeight > 32 {
		return fmt.Errorf("TreeHeight must be in [1,32]")
	}
	if p.Layers*p.TreeHeight >= 64 {
		return fmt.Errorf("Layers*TreeHeight must be less than 64: MaxLeaves=2^(Layers*TreeHeight) must fit in a uint64 (position width, see SPEC_FULL.md §9)")
	}
	return nil
}

// regEntry is an entry in the registry of named parameter sets.
type regEntry struct {
	name   string
	params Params
}

// registry lists convenience presets. None of these are a claim of
// interoperability with any standardized SPHINCS+ parameter set; they are named shorthands for common (K,A,Layers,H)
// combinations used by this module's own tests and examples.
var registry = []regEntry{
	{"SPX-TINY", Params{K: 4, A: 4, Layers: 2, TreeHeight: 3}},
	{"SPX-SMALL", Params{K: 10, A: 12, Layers: 3, TreeHeight: 5}},
	{"SPX-SHA256-128S", Params{K: 14, A: 12, Layers: 7, TreeHeight: 9}},
	{"SPX-SHA256-128F", Params{K: 33, A: 6, Layers: 20, TreeHeight: 3}},
	{"SPX-SHA256-192S", Params{K: 17, A: 14, Layers: 7, TreeHeight: 9}},
}

var registryNameLut map[string]regEntry

func init() {
	registryNameLut = make(map[string]regEntry, len(registry))
	for _, entry := range registry {
		registryNameLut[entry.name] = entry
	}
}

// ParamsFromName returns the parameters for a named preset, or nil if no
// such preset is registered.
func ParamsFromName(name string) *Params {
	entry, ok := registryNameLut[name]
	if !ok {
		return nil
	}
	p := entry.params
	return &p
}

// ListNames lists every registered preset name.
func ListNames() []string {
	names := make([]string, len(registry))
	for i, entry := range registry {
		names[i] = entry.name
	}
	return names
}
