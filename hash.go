package sphincsplus

import (
	"crypto/sha256"

	"github.com/templexxx/xor"
)

// hashMessage is the core digest primitive: plain SHA-256. Every
// tweakable hash below is built from it, so this is the one place the
// hash primitive would change if this scheme were re-parameterised onto
// a different digest. It is intentionally the standard library's
// crypto/sha256 rather than an ecosystem alternative: a locked test
// vector pins the exact SHA-256 byte output of a reference Merkle root,
// so swapping in e.g. a SIMD/asm SHA-256 package would be a correctness
// risk for a cosmetic speed gain on an already cheap primitive.
func hashMessage(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// hashArray is hash_array: SHA-256 of the concatenation of its inputs.
// It is the pairing primitive for every Merkle/FORS tree level and the
// public-key compressor for WOTS+.
func hashArray(parts ...[]byte) [32]byte {
	return hashMessage(parts...)
}

// repeatHash iterates x <- SHA256(x ‖ ctx.toBytes()) n times. n=0 returns
// x unchanged. This is the WOTS+ hash chain.
func repeatHash(x [32]byte, n uint16, ctx HashContext) [32]byte {
	if n == 0 {
		return x
	}
	ctxBytes := ctx.toBytes()
	cur := x
	for i := uint16(0); i < n; i++ {
		cur = hashMessage(cur[:], ctxBytes)
	}
	return cur
}

// complementHash is complement_hash(x, k, ctx) = repeat_hash(x, 255-k, ctx).
// Together with repeatHash it gives WOTS+ its "meet in the middle at 255"
// verification property.
func complementHash(x [32]byte, k uint16, ctx HashContext) [32]byte {
	return repeatHash(x, 255-k, ctx)
}

// pairKeys reduces a level of a binary hash tree by one step: adjacent
// pairs (keys[2i], keys[2i+1]) are combined with pair(a,b,publicSeed) =
// hash_array(a, b, publicSeed). The public seed alone tweaks the pairing
// — the node address is not folded in,
// unlike FIPS 205. pairKeys panics on an odd-length input: this is an
// invariant violation by the caller, not a data-dependent verification failure.
func pairKeys(keys [][32]byte, publicSeed [32]byte) [][32]byte {
	if len(keys)%2 != 0 {
		panic("pairKeys: odd number of inputs")
	}
	out := make([][32]byte, len(keys)/2)
	for i := range out {
		out[i] = hashArray(keys[2*i][:], keys[2*i+1][:], publicSeed[:])
	}
	return out
}

// fold XORs the two 16-byte halves of a 32-byte value and interprets the
// result as an unsigned big-endian integer; this is how a message
// digest is reduced to a hypertree leaf index. The XOR itself uses
// templexxx/xor rather than a hand-rolled loop: this is the one place
// in the scheme that calls for an actual bitwise XOR (as opposed to
// hash-tweaking), so it is the dependency's one legitimate call site.
func fold(combined [32]byte) [16]byte {
	var out [16]byte
	xor.BytesSameLen(out[:], combined[0:16], combined[16:32])
	return out
}
