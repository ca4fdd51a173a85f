package sphincsplus

import "github.com/hashforest/sphincsplus/keystore"

// HyperTreeSignature chains Layers Merkle proofs: proofs[0] signs the
// FORS public key, proofs[i] signs proofs[i-1]'s root, and
// proofs[Layers-1]'s root is the master public key.
type HyperTreeSignature struct {
	Proofs    []MerkleProof // length == Layers
	PublicKey [32]byte      // master root, proofs[Layers-1].Root
}

// treePosition computes tree_position(i, ℓ) = i >> (ℓ·TreeHeight): the
// position within layer ℓ's Merkle tree that hypertree leaf i falls
// under.
func treePosition(i uint64, layer, treeHeight uint32) uint64 {
	return i >> (uint64(layer) * uint64(treeHeight))
}

// signHyperTree signs payload (the FORS public key) at hypertree leaf
// index i, walking layer 0 upward to the master root.
func signHyperTree(workers int, seed []byte, publicSeed [32]byte, layers, treeHeight uint32, i uint64, payload [32]byte, cache *keystore.Cache) (HyperTreeSignature, Error) {
	proofs := make([]MerkleProof, layers)
	cur := payload
	for layer := uint32(0); layer < layers; layer++ {
		ctx := HashContext{
			PublicSeed: publicSeed,
			Addr:       Address{Layer: uint16(layer), Position: treePosition(i, layer, treeHeight)},
		}
		proof, err := signMerkleTree(workers, seed, ctx, treeHeight, cur, cache)
		if err != nil {
			return HyperTreeSignature{}, wrapErrorf(err, "signing hypertree layer %d", layer)
		}
		proofs[layer] = proof
		cur = proof.Root
	}
	return HyperTreeSignature{Proofs: proofs, PublicKey: cur}, nil
}

// verifyHyperTree walks proofs[0..Layers-1] against the expected chain:
// each proof must validate for the
// current payload, after which its declared root becomes the next
// payload. The walk is inherently sequential across layers, though each
// layer's WOTS+ chain verification is internally parallelisable
// — this module leaves that at the default Go scheduler's
// discretion since a single WOTS+ verification is already cheap.
func verifyHyperTree(sig HyperTreeSignature, publicSeed [32]byte, treeHeight uint32, i uint64, initialPayload [32]byte, masterRoot [32]byte) Error {
	if len(sig.Proofs) == 0 {
		return errorf("hypertree signature has no layers")
	}
	cur := initialPayload
	var layer uint32
	for layer = 0; layer < uint32(len(sig.Proofs)); layer++ {
		proof := sig.Proofs[layer]
		leafIdx := treePosition(i, layer, treeHeight) % (uint64(1) << treeHeight)
		reconstructed, ok := verifyMerkleProof(proof, cur, publicSeed, leafIdx)
		if !ok {
			return newProofError(layer, cur, proof.Root, reconstructed)
		}
		cur = proof.Root
	}
	if cur != masterRoot {
		return newPublicKeyError(masterRoot, cur)
	}
	return nil
}

// hyperTreeSignatureSize returns the wire size of a HyperTreeSignature
// for the given (Layers, TreeHeight): Layers × MerkleProof(TreeHeight) +
// public_key(32).
func hyperTreeSignatureSize(layers, treeHeight uint32) int {
	return int(layers)*merkleProofSize(treeHeight) + 32
}

// MarshalBinary encodes a HyperTreeSignature as the concatenation of its
// proofs in layer order, followed by the 32-byte master public key
//.
func (sig HyperTreeSignature) MarshalBinary() ([]byte, error) {
	var buf []byte
	for _, proof := range sig.Proofs {
		b, err := proof.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	buf = append(buf, sig.PublicKey[:]...)
	return buf, nil
}

// unmarshalHyperTreeSignature decodes a HyperTreeSignature for the given
// (Layers, TreeHeight).
func unmarshalHyperTreeSignature(buf []byte, layers, treeHeight uint32) (HyperTreeSignature, error) {
	want := hyperTreeSignatureSize(layers, treeHeight)
	if len(buf) != want {
		return HyperTreeSignature{}, errorf("HyperTreeSignature(%d,%d) must be %d bytes, got %d", layers, treeHeight, want, len(buf))
	}
	proofSize := merkleProofSize(treeHeight)
	sig := HyperTreeSignature{Proofs: make([]MerkleProof, layers)}
	off := 0
	for l := uint32(0); l < layers; l++ {
		proof, err := unmarshalMerkleProof(buf[off:off+proofSize], treeHeight)
		if err != nil {
			return HyperTreeSignature{}, wrapErrorf(err, "decoding proof %d", l)
		}
		sig.Proofs[l] = proof
		off += proofSize
	}
	copy(sig.PublicKey[:], buf[off:])
	return sig, nil
}
