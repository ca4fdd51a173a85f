package sphincsplus

import "github.com/hashforest/sphincsplus/keystore"

// MerkleProof is a signed-side artifact: a WOTS+ signature over a
// payload at one leaf of a height-H Merkle tree, plus the authentication
// path from that leaf to the tree's root.
type MerkleProof struct {
	Root      [32]byte // the tree's root, as reconstructed by the signer
	Signature WotsSignature
	AuthPath  [][32]byte // length == tree height
}

// signMerkleTree builds the height-H Merkle tree of WOTS+ public keys
// sharing ctx's (layer, base-position) prefix, and signs payload with
// the WOTS+ leaf addressed by ctx.Addr.Position.
//
// Leaf generation is parallelised across workers goroutines; the
// leaves are written into a fixed-size slice by index so the
// concatenation order consumed by hash_array stays deterministic
// regardless of goroutine completion order. When cache is non-nil, the
// generated leaves and root are looked up and stored under the
// subtree's (public seed, layer, base, height) address, so repeated
// signing against the same subtree — typical of the upper hypertree
// layers, whose position range is small — skips regenerating every
// WOTS+ chain.
func signMerkleTree(workers int, seed []byte, ctx HashContext, height uint32, payload [32]byte, cache *keystore.Cache) (MerkleProof, Error) {
	size := uint64(1) << height
	p := ctx.Addr.Position
	base := (p / size) * size
	leafIdx := p - base

	subTreeAddr := keystore.SubTreeAddress{
		PublicSeed: ctx.PublicSeed,
		Layer:      ctx.Addr.Layer,
		Base:       base,
		Height:     height,
	}

	var leaves [][32]byte
	cached := false
	if cache != nil {
		if entry, ok, err := cache.Get(subTreeAddr); err == nil && ok {
			leaves = entry.Leaves
			cached = true
			log.Logf("merkle: cache hit for layer=%d base=%d height=%d", ctx.Addr.Layer, base, height)
		}
	}

	if !cached {
		if cache != nil {
			log.Logf("merkle: cache miss for layer=%d base=%d height=%d, regenerating %d leaves", ctx.Addr.Layer, base, height, size)
		}
		var err error
		leaves, err = generateLeaves(workers, int(size), func(i int) ([32]byte, error) {
			leafCtx := ctx.withPosition(base + uint64(i))
			return NewWotsSecret(seed, leafCtx).PublicKey().PublicKey, nil
		})
		if err != nil {
			return MerkleProof{}, wrapErrorf(err, "generating merkle leaves")
		}
	}

	levels := buildLevels(leaves, ctx.PublicSeed)
	root := levels[len(levels)-1][0]
	authPath := authPathFromLevels(levels, leafIdx)

	if cache != nil && !cached {
		_ = cache.Put(subTreeAddr, keystore.Entry{Root: root, Leaves: leaves})
	}

	leafCtx := ctx.withPosition(p)
	sig := NewWotsSecret(seed, leafCtx).Sign(payload)

	return MerkleProof{Root: root, Signature: sig, AuthPath: authPath}, nil
}

// verifyMerkleProof recomputes the root implied by proof and payload at
// leaf leafIdx, and checks it equals the root the proof declares.
// leafIdx is the position within this subtree (the signing address's
// position mod 2^height).
func verifyMerkleProof(proof MerkleProof, payload [32]byte, publicSeed [32]byte, leafIdx uint64) ([32]byte, bool) {
	wotsPk := proof.Signature.ExpectedPublicKey(payload)
	reconstructed := verifyAuthPath(wotsPk, leafIdx, proof.AuthPath, publicSeed)
	return reconstructed, reconstructed == proof.Root
}

// merkleProofSize returns the wire size of a MerkleProof for a tree of
// the given height: root(32) ‖ WotsSignature(1130) ‖ height×32.
func merkleProofSize(height uint32) int {
	return 32 + wotsSignatureSize + int(height)*32
}

// MarshalBinary encodes a MerkleProof as root(32) ‖ signature(1130) ‖
// auth_path(height×32).
func (mp MerkleProof) MarshalBinary() ([]byte, error) {
	sigBytes, err := mp.Signature.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, merkleProofSize(uint32(len(mp.AuthPath))))
	copy(buf[0:32], mp.Root[:])
	copy(buf[32:], sigBytes)
	off := 32 + len(sigBytes)
	for _, h := range mp.AuthPath {
		copy(buf[off:], h[:])
		off += 32
	}
	return buf, nil
}

// unmarshalMerkleProof decodes a MerkleProof of the given tree height.
func unmarshalMerkleProof(buf []byte, height uint32) (MerkleProof, error) {
	want := merkleProofSize(height)
	if len(buf) != want {
		return MerkleProof{}, errorf("MerkleProof of height %d must be %d bytes, got %d", height, want, len(buf))
	}
	var mp MerkleProof
	copy(mp.Root[:], buf[0:32])
	sig, err := UnmarshalWotsSignature(buf[32 : 32+wotsSignatureSize])
	if err != nil {
		return MerkleProof{}, wrapErrorf(err, "decoding wots signature")
	}
	mp.Signature = sig
	off := 32 + wotsSignatureSize
	mp.AuthPath = make([][32]byte, height)
	for i := range mp.AuthPath {
		copy(mp.AuthPath[i][:], buf[off:])
		off += 32
	}
	return mp, nil
}
