package sphincsplus

// wotsChains is the number of WOTS+ hash chains: 32 message-digest
// chains plus 2 checksum chains.
const (
	wotsMessageChains  = 32
	wotsChecksumChains = 2
	wotsChains         = wotsMessageChains + wotsChecksumChains
	wotsChainLength    = 255
	wotsChecksumTotal  = wotsChainLength * wotsMessageChains // 8160
)

// WotsSecret holds the secret material of a one-time WOTS+ keypair: a
// seed and the HashContext (layer, position, public seed) it was
// derived at. It is never stored; every chain start is re-derived from
// (seed, ctx) via prf on demand. seed is the caller's slice, not a copy,
// so Erase zeroes the caller's seed; the Merkle signer does not call
// Erase, and derived chain starts are not zeroed after use.
type WotsSecret struct {
	seed []byte
	ctx  HashContext
}

// NewWotsSecret constructs the one-time WOTS+ secret at ctx, deriving its
// 34 chain starts lazily from seed.
func NewWotsSecret(seed []byte, ctx HashContext) *WotsSecret {
	return &WotsSecret{seed: seed, ctx: ctx}
}

func (w *WotsSecret) messageKey(i uint32) [32]byte {
	return prf(w.seed, w.ctx.Addr, RoleMessageKey, uint64(i))
}

func (w *WotsSecret) checksumKey(j uint32) [32]byte {
	return prf(w.seed, w.ctx.Addr, RoleChecksumKey, uint64(j))
}

// Erase overwrites the stored seed reference so the secret material does
// not linger in memory beyond the signer's scope.
func (w *WotsSecret) Erase() {
	for i := range w.seed {
		w.seed[i] = 0
	}
}

// tips returns T_0..T_33, the chain ends reached after the full 255-step
// repeat_hash from each of the 34 chain starts.
func (w *WotsSecret) tips() [wotsChains][32]byte {
	var t [wotsChains][32]byte
	for i := 0; i < wotsMessageChains; i++ {
		t[i] = repeatHash(w.messageKey(uint32(i)), wotsChainLength, w.ctx)
	}
	for j := 0; j < wotsChecksumChains; j++ {
		t[wotsMessageChains+j] = repeatHash(w.checksumKey(uint32(j)), wotsChainLength, w.ctx)
	}
	return t
}

// PublicKey computes the WOTS+ public key: hash_array over all 34 chain
// tips.
func (w *WotsSecret) PublicKey() WotsPublic {
	t := w.tips()
	return WotsPublic{Context: w.ctx, PublicKey: hashArray(flattenChains(t)...)}
}

// Sign produces a one-time WOTS+ signature over a 32-byte digest
//. Signing the same context twice with different digests
// breaks the scheme's one-time security property; that discipline is the
// caller's responsibility (enforced structurally above by the Merkle
// signer, which only ever signs once per leaf address).
func (w *WotsSecret) Sign(digest [32]byte) WotsSignature {
	checksum := wotsChecksum(digest)
	var sig WotsSignature
	sig.Context = w.ctx
	for i := 0; i < wotsMessageChains; i++ {
		sig.MessageHashes[i] = repeatHash(w.messageKey(uint32(i)), uint16(digest[i]), w.ctx)
	}
	for j := 0; j < wotsChecksumChains; j++ {
		sig.ChecksumHashes[j] = repeatHash(w.checksumKey(uint32(j)), uint16(checksum[j]), w.ctx)
	}
	return sig
}

// wotsChecksum computes C = 255*32 - sum(digest) and returns it as two
// little-endian bytes c0, c1.
func wotsChecksum(digest [32]byte) [2]byte {
	var sum uint32
	for _, b := range digest {
		sum += uint32(b)
	}
	c := uint32(wotsChecksumTotal) - sum
	return [2]byte{byte(c), byte(c >> 8)}
}

func flattenChains(t [wotsChains][32]byte) [][]byte {
	out := make([][]byte, wotsChains)
	for i := range t {
		cp := t[i]
		out[i] = cp[:]
	}
	return out
}

// WotsPublic is a WOTS+ public key together with the context it was
// derived at.
type WotsPublic struct {
	Context   HashContext
	PublicKey [32]byte
}

const wotsPublicSize = hashContextSize + 32

// MarshalBinary encodes a WotsPublic as context(42) ‖ public_key(32)
//.
func (wp WotsPublic) MarshalBinary() ([]byte, error) {
	buf := make([]byte, wotsPublicSize)
	wp.Context.writeInto(buf[:hashContextSize])
	copy(buf[hashContextSize:], wp.PublicKey[:])
	return buf, nil
}

// UnmarshalWotsPublic decodes a WotsPublic from its wire encoding.
func UnmarshalWotsPublic(buf []byte) (WotsPublic, error) {
	if len(buf) != wotsPublicSize {
		return WotsPublic{}, errorf("WotsPublic must be %d bytes, got %d", wotsPublicSize, len(buf))
	}
	ctx, err := hashContextFromBytes(buf[:hashContextSize])
	if err != nil {
		return WotsPublic{}, wrapErrorf(err, "decoding context")
	}
	var wp WotsPublic
	wp.Context = ctx
	copy(wp.PublicKey[:], buf[hashContextSize:])
	return wp, nil
}

// WotsSignature is the signed-side artifact produced by WotsSecret.Sign
//.
type WotsSignature struct {
	Context        HashContext
	MessageHashes  [wotsMessageChains][32]byte
	ChecksumHashes [wotsChecksumChains][32]byte
}

const wotsSignatureSize = hashContextSize + wotsChains*32

// MarshalBinary encodes a WotsSignature as
// context(42) ‖ 32×message_hash(32) ‖ 2×checksum_hash(32) = 1130 bytes
//.
func (sig WotsSignature) MarshalBinary() ([]byte, error) {
	buf := make([]byte, wotsSignatureSize)
	sig.Context.writeInto(buf[:hashContextSize])
	off := hashContextSize
	for _, h := range sig.MessageHashes {
		copy(buf[off:], h[:])
		off += 32
	}
	for _, h := range sig.ChecksumHashes {
		copy(buf[off:], h[:])
		off += 32
	}
	return buf, nil
}

// UnmarshalWotsSignature decodes a WotsSignature from its wire encoding.
func UnmarshalWotsSignature(buf []byte) (WotsSignature, error) {
	if len(buf) != wotsSignatureSize {
		return WotsSignature{}, errorf("WotsSignature must be %d bytes, got %d", wotsSignatureSize, len(buf))
	}
	ctx, err := hashContextFromBytes(buf[:hashContextSize])
	if err != nil {
		return WotsSignature{}, wrapErrorf(err, "decoding context")
	}
	var sig WotsSignature
	sig.Context = ctx
	off := hashContextSize
	for i := range sig.MessageHashes {
		copy(sig.MessageHashes[i][:], buf[off:])
		off += 32
	}
	for i := range sig.ChecksumHashes {
		copy(sig.ChecksumHashes[i][:], buf[off:])
		off += 32
	}
	return sig, nil
}

// wotsPublicKeyFromSignature reconstructs the WOTS+ public key implied
// by a signature and the digest it (claims to) sign. It is a free
// function, not a method on the signer, so that the signature side does
// not depend on the signer. Verification is its only caller; signing
// derives public keys from the chain tips directly (WotsSecret.PublicKey).
func wotsPublicKeyFromSignature(sig WotsSignature, digest [32]byte) [32]byte {
	checksum := wotsChecksum(digest)
	var t [wotsChains][32]byte
	for i := 0; i < wotsMessageChains; i++ {
		t[i] = complementHash(sig.MessageHashes[i], uint16(digest[i]), sig.Context)
	}
	for j := 0; j < wotsChecksumChains; j++ {
		t[wotsMessageChains+j] = complementHash(sig.ChecksumHashes[j], uint16(checksum[j]), sig.Context)
	}
	return hashArray(flattenChains(t)...)
}

// ExpectedPublicKey reconstructs the public key a verifier would accept
// for this signature and digest. WotsPublic.Verify and the Merkle proof
// verifier (verifyMerkleProof) both call through this convenience
// method, which itself just calls
// wotsPublicKeyFromSignature.
func (sig WotsSignature) ExpectedPublicKey(digest [32]byte) [32]byte {
	return wotsPublicKeyFromSignature(sig, digest)
}

// Verify checks that sig is a valid WOTS+ signature over digest for this
// public key.
func (wp WotsPublic) Verify(sig WotsSignature, digest [32]byte) bool {
	return sig.ExpectedPublicKey(digest) == wp.PublicKey
}
