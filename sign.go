package sphincsplus

import (
	"math/big"
	"time"

	"github.com/hashforest/sphincsplus/keystore"
)

// SphincsSignature is the wire-level artifact produced by Signer.Sign:
// the message digest, the FORS signature over it, the hypertree
// signature chaining up to the master root, and the timestamp mixed
// into the leaf-index derivation.
type SphincsSignature struct {
	DataHash  [32]byte
	Fors      ForsSignature
	HyperTree HyperTreeSignature
	Timestamp uint64
}

// SphincsPublic is a verifier's view of a keypair: the master root and
// the public seed every hash in the scheme is tweaked with.
type SphincsPublic struct {
	Key        [32]byte
	PublicSeed [32]byte
}

// Signer holds the long-lived secret material of a keypair (seed and
// public_seed) plus the parameters/context it signs under. The secret
// seed is never copied out; Erase zeroes it.
type Signer struct {
	ctx        *Context
	seed       []byte
	publicSeed [32]byte
	cache      *keystore.Cache
}

// NewSigner builds a Signer from a master seed and public seed under ctx.
// Neither slice is retained by reference beyond this call except seed
// itself, which the Signer owns until Erase is called.
func NewSigner(ctx *Context, seed []byte, publicSeed [32]byte) *Signer {
	return &Signer{ctx: ctx, seed: seed, publicSeed: publicSeed}
}

// WithCache attaches a subtree cache that signing and public-key
// derivation will consult before regenerating a Merkle subtree's
// leaves. Passing nil detaches any previously attached cache.
func (s *Signer) WithCache(cache *keystore.Cache) *Signer {
	s.cache = cache
	return s
}

// Erase wipes the signer's copy of the master seed.
func (s *Signer) Erase() {
	for i := range s.seed {
		s.seed[i] = 0
	}
}

// PublicKey derives the master public key: the root of the top
// hypertree layer, treating that layer as an ordinary Merkle tree
// rooted at position 0. Every leaf index's top-layer tree_position
// resolves to base 0 (position < 2^TreeHeight at the top layer), so
// there is exactly one master root per keypair regardless of which
// leaf a given signature used.
func (s *Signer) PublicKey() (SphincsPublic, Error) {
	p := s.ctx.Params()
	topLayer := p.Layers - 1
	ctx := HashContext{
		PublicSeed: s.publicSeed,
		Addr:       Address{Layer: uint16(topLayer), Position: 0},
	}
	size := uint64(1) << p.TreeHeight
	subTreeAddr := keystore.SubTreeAddress{PublicSeed: s.publicSeed, Layer: uint16(topLayer), Base: 0, Height: p.TreeHeight}

	var leaves [][32]byte
	if s.cache != nil {
		if entry, ok, err := s.cache.Get(subTreeAddr); err == nil && ok {
			leaves = entry.Leaves
			log.Logf("sphincsplus: master public key cache hit for top layer %d", topLayer)
		}
	}
	if leaves == nil {
		if s.cache != nil {
			log.Logf("sphincsplus: master public key cache miss for top layer %d, regenerating %d leaves", topLayer, size)
		}
		var err error
		leaves, err = generateLeaves(s.ctx.workers(), int(size), func(i int) ([32]byte, error) {
			leafCtx := ctx.withPosition(uint64(i))
			return NewWotsSecret(s.seed, leafCtx).PublicKey().PublicKey, nil
		})
		if err != nil {
			return SphincsPublic{}, wrapErrorf(err, "deriving master public key")
		}
	}
	levels := buildLevels(leaves, s.publicSeed)
	root := levels[len(levels)-1][0]
	if s.cache != nil {
		_ = s.cache.Put(subTreeAddr, keystore.Entry{Root: root, Leaves: leaves})
	}
	return SphincsPublic{Key: root, PublicSeed: s.publicSeed}, nil
}

// leafIndex folds the hash of the message with the hash of the
// timestamp, then reduces modulo MAX_LEAVES to select a hypertree leaf.
// The fold result is treated as a big-endian unsigned integer wide
// enough to exceed 64 bits in general, so the modular reduction goes
// through math/big rather than a native uint64 operation.
func leafIndex(p Params, digest [32]byte, timestamp uint64) (combined [32]byte, index uint64) {
	var tsBytes [16]byte
	big.NewInt(0).SetUint64(timestamp).FillBytes(tsBytes[:])
	hashedTS := hashMessage(tsBytes[:])
	combined = hashArray(digest[:], hashedTS[:])

	folded := fold(combined)
	n := new(big.Int).SetBytes(folded[:])
	max := new(big.Int).SetUint64(p.MaxLeaves())
	n.Mod(n, max)
	return combined, n.Uint64()
}

// Sign produces a SphincsSignature over message, using the current
// wall-clock time as the leaf-selecting timestamp.
// Use SignWithTimestamp for deterministic/testable output.
func (s *Signer) Sign(message []byte) (SphincsSignature, Error) {
	return s.SignWithTimestamp(message, uint64(time.Now().UnixMilli()))
}

// SignWithTimestamp signs message with an explicit timestamp rather
// than an implicit wall-clock read, so that the deterministic property
// (same seed + same timestamp => identical signature) is directly
// testable.
func (s *Signer) SignWithTimestamp(message []byte, timestamp uint64) (SphincsSignature, Error) {
	p := s.ctx.Params()
	digest := hashMessage(message)
	combined, index := leafIndex(p, digest, timestamp)

	forsCtx := HashContext{
		PublicSeed: s.publicSeed,
		Addr:       Address{Layer: 0, Position: index},
	}
	forsSig, err := signForsTree(s.ctx.workers(), s.seed, forsCtx, p.K, p.A, combined)
	if err != nil {
		return SphincsSignature{}, wrapErrorf(err, "signing fors tree")
	}

	htSig, err := signHyperTree(s.ctx.workers(), s.seed, s.publicSeed, p.Layers, p.TreeHeight, index, forsSig.PublicKey, s.cache)
	if err != nil {
		return SphincsSignature{}, wrapErrorf(err, "signing hypertree")
	}

	return SphincsSignature{
		DataHash:  digest,
		Fors:      forsSig,
		HyperTree: htSig,
		Timestamp: timestamp,
	}, nil
}

// Verify checks a signature against message and public_key: reject a
// mismatched digest, recompute the FORS public key, and walk
// the hypertree chain up to the claimed master root. Returns the
// message digest and timestamp on success; the public key is not
// returned.
func Verify(ctx *Context, message []byte, sig SphincsSignature, pub SphincsPublic) ([32]byte, uint64, Error) {
	digest := hashMessage(message)
	if digest != sig.DataHash {
		return [32]byte{}, 0, newWrongMessageError(sig.DataHash)
	}

	p := ctx.Params()
	combined, index := leafIndex(p, sig.DataHash, sig.Timestamp)

	reconstructedForsPK := forsPublicKeyFromSignature(sig.Fors, p.K, p.A, combined)
	if reconstructedForsPK != sig.Fors.PublicKey {
		return [32]byte{}, 0, newForsFailureError(reconstructedForsPK, sig.Fors.PublicKey)
	}

	if err := verifyHyperTree(sig.HyperTree, pub.PublicSeed, p.TreeHeight, index, sig.Fors.PublicKey, pub.Key); err != nil {
		return [32]byte{}, 0, wrapErrorf(err, "verifying hypertree chain")
	}

	return sig.DataHash, sig.Timestamp, nil
}

// sphincsSignatureSize returns the wire size of a SphincsSignature for
// the given parameters: data_hash(32) + ForsSignature(K,A) +
// HyperTreeSignature(Layers,TreeHeight) + timestamp(16).
func sphincsSignatureSize(p Params) int {
	return 32 + forsSignatureSize(p.K, p.A) + hyperTreeSignatureSize(p.Layers, p.TreeHeight) + 16
}

// MarshalBinary encodes a SphincsSignature as data_hash(32) ‖ fors ‖
// hyper_tree ‖ timestamp(16, big-endian).
func (sig SphincsSignature) MarshalBinary() ([]byte, error) {
	forsBytes, err := sig.Fors.MarshalBinary()
	if err != nil {
		return nil, err
	}
	htBytes, err := sig.HyperTree.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 32+len(forsBytes)+len(htBytes)+16)
	buf = append(buf, sig.DataHash[:]...)
	buf = append(buf, forsBytes...)
	buf = append(buf, htBytes...)
	var tsBytes [16]byte
	big.NewInt(0).SetUint64(sig.Timestamp).FillBytes(tsBytes[:])
	buf = append(buf, tsBytes[:]...)
	return buf, nil
}

// UnmarshalSphincsSignature decodes a SphincsSignature for the given
// parameters.
func UnmarshalSphincsSignature(buf []byte, p Params) (SphincsSignature, error) {
	want := sphincsSignatureSize(p)
	if len(buf) != want {
		return SphincsSignature{}, errorf("SphincsSignature(%s) must be %d bytes, got %d", p, want, len(buf))
	}
	var sig SphincsSignature
	copy(sig.DataHash[:], buf[0:32])
	off := 32

	forsSize := forsSignatureSize(p.K, p.A)
	forsSig, err := unmarshalForsSignature(buf[off:off+forsSize], p.K, p.A)
	if err != nil {
		return SphincsSignature{}, wrapErrorf(err, "decoding fors signature")
	}
	sig.Fors = forsSig
	off += forsSize

	htSize := hyperTreeSignatureSize(p.Layers, p.TreeHeight)
	htSig, err := unmarshalHyperTreeSignature(buf[off:off+htSize], p.Layers, p.TreeHeight)
	if err != nil {
		return SphincsSignature{}, wrapErrorf(err, "decoding hypertree signature")
	}
	sig.HyperTree = htSig
	off += htSize

	sig.Timestamp = new(big.Int).SetBytes(buf[off : off+16]).Uint64()
	return sig, nil
}

const sphincsPublicSize = 64

// MarshalBinary encodes a SphincsPublic as key(32) ‖ public_seed(32).
func (pub SphincsPublic) MarshalBinary() ([]byte, error) {
	buf := make([]byte, sphincsPublicSize)
	copy(buf[0:32], pub.Key[:])
	copy(buf[32:64], pub.PublicSeed[:])
	return buf, nil
}

// UnmarshalSphincsPublic decodes a SphincsPublic from its wire encoding.
func UnmarshalSphincsPublic(buf []byte) (SphincsPublic, error) {
	if len(buf) != sphincsPublicSize {
		return SphincsPublic{}, errorf("SphincsPublic must be %d bytes, got %d", sphincsPublicSize, len(buf))
	}
	var pub SphincsPublic
	copy(pub.Key[:], buf[0:32])
	copy(pub.PublicSeed[:], buf[32:64])
	return pub, nil
}
