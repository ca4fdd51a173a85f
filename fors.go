package sphincsplus

import (
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ForsSignatureElement is one FORS sub-tree's contribution to a
// signature: the one secret leaf revealed, and the authentication path
// from its hashed leaf to the sub-tree's root.
type ForsSignatureElement struct {
	SecretKey [32]byte
	AuthPath  [][32]byte // length == A
}

// ForsSignature is a few-time signature over a message digest, made of
// K independent sub-tree elements.
type ForsSignature struct {
	Elements  []ForsSignatureElement // length == K
	Context   HashContext
	PublicKey [32]byte
}

// messageToIndices extracts K indices, each an A-bit unsigned integer,
// from consecutive A-bit windows of m read in big-endian bit order
//. Missing trailing bytes are treated as zero, so the
// mapping is total over every message length.
func messageToIndices(k, a uint32, m []byte) []uint64 {
	indices := make([]uint64, k)
	for i := uint32(0); i < k; i++ {
		indices[i] = extractBits(m, i*a, a)
	}
	return indices
}

// extractBits reads the a-bit window starting at bitOffset (0 = most
// significant bit of m[0]) by packing the three bytes containing that
// window into a 24-bit big-endian super-word and shifting the window
// into the low bits. This requires bitOffset%8 + a <= 24, which holds
// for every A this package supports (see Params.validate).
func extractBits(m []byte, bitOffset, a uint32) uint64 {
	byteOffset := bitOffset / 8
	bitsIntoByte := bitOffset % 8

	var b [3]byte
	for i := 0; i < 3; i++ {
		pos := int(byteOffset) + i
		if pos < len(m) {
			b[i] = m[pos]
		}
	}
	superword := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	shift := 24 - bitsIntoByte - a
	mask := (uint32(1) << a) - 1
	return uint64((superword >> shift) & mask)
}

// signForsTree signs digest (= combined, the top-level signer's folded
// message+timestamp hash) at ctx (Layer 0, Addr.Position = the hypertree
// leaf index).
//
// The K sub-trees are built concurrently; per-subtree errors are
// aggregated with hashicorp/go-multierror the same way signMerkleTree's
// leaf generation aggregates per-leaf errors.
func signForsTree(workers int, seed []byte, ctx HashContext, k, a uint32, digest [32]byte) (ForsSignature, Error) {
	indices := messageToIndices(k, a, digest[:])
	leavesPerTree := uint64(1) << a

	elements := make([]ForsSignatureElement, k)
	roots := make([][32]byte, k)

	if workers < 1 {
		workers = 1
	}
	if uint32(workers) > k {
		workers = int(k)
	}

	jobs := make(chan uint32)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs *multierror.Error

	work := func(sub uint32) error {
		hashedLeaves := make([][32]byte, leavesPerTree)
		var secretLeaves = make([][32]byte, leavesPerTree)
		for j := uint64(0); j < leavesPerTree; j++ {
			secret := prf(seed, ctx.Addr, RoleFors, uint64(sub)*leavesPerTree+j)
			secretLeaves[j] = secret
			hashedLeaves[j] = hashMessage(secret[:])
		}
		levels := buildLevels(hashedLeaves, ctx.PublicSeed)
		idx := indices[sub]
		roots[sub] = levels[len(levels)-1][0]
		elements[sub] = ForsSignatureElement{
			SecretKey: secretLeaves[idx],
			AuthPath:  authPathFromLevels(levels, idx),
		}
		return nil
	}

	worker := func() {
		defer wg.Done()
		for sub := range jobs {
			if err := work(sub); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}
	for sub := uint32(0); sub < k; sub++ {
		jobs <- sub
	}
	close(jobs)
	wg.Wait()

	if errs != nil {
		return ForsSignature{}, wrapErrorf(errs.ErrorOrNil(), "generating fors sub-trees")
	}

	rootSlices := make([][]byte, k)
	for i := range roots {
		cp := roots[i]
		rootSlices[i] = cp[:]
	}

	return ForsSignature{
		Elements:  elements,
		Context:   ctx,
		PublicKey: hashArray(rootSlices...),
	}, nil
}

// forsPublicKeyFromSignature reconstructs the FORS public key implied by
// sig and the digest it (claims to) sign.
func forsPublicKeyFromSignature(sig ForsSignature, k, a uint32, digest [32]byte) [32]byte {
	indices := messageToIndices(k, a, digest[:])
	roots := make([][]byte, k)
	for i, elem := range sig.Elements {
		hashedLeaf := hashMessage(elem.SecretKey[:])
		root := verifyAuthPath(hashedLeaf, indices[i], elem.AuthPath, sig.Context.PublicSeed)
		cp := root
		roots[i] = cp[:]
	}
	return hashArray(roots...)
}

// forsSignatureSize returns the wire size of a ForsSignature for the
// given (K, A): context(42) + public_key(32) + K×(32 + A×32).
func forsSignatureSize(k, a uint32) int {
	return hashContextSize + 32 + int(k)*(32+int(a)*32)
}

// MarshalBinary encodes a ForsSignature as
// context(42) ‖ public_key(32) ‖ elements, each secret_key(32) ‖ auth_path(A×32)
//.
func (sig ForsSignature) MarshalBinary() ([]byte, error) {
	a := 0
	if len(sig.Elements) > 0 {
		a = len(sig.Elements[0].AuthPath)
	}
	buf := make([]byte, forsSignatureSize(uint32(len(sig.Elements)), uint32(a)))
	sig.Context.writeInto(buf[:hashContextSize])
	off := hashContextSize
	copy(buf[off:], sig.PublicKey[:])
	off += 32
	for _, elem := range sig.Elements {
		copy(buf[off:], elem.SecretKey[:])
		off += 32
		for _, h := range elem.AuthPath {
			copy(buf[off:], h[:])
			off += 32
		}
	}
	return buf, nil
}

// unmarshalForsSignature decodes a ForsSignature for the given (K, A).
func unmarshalForsSignature(buf []byte, k, a uint32) (ForsSignature, error) {
	want := forsSignatureSize(k, a)
	if len(buf) != want {
		return ForsSignature{}, errorf("ForsSignature(%d,%d) must be %d bytes, got %d", k, a, want, len(buf))
	}
	var sig ForsSignature
	ctx, err := hashContextFromBytes(buf[:hashContextSize])
	if err != nil {
		return ForsSignature{}, wrapErrorf(err, "decoding context")
	}
	sig.Context = ctx
	off := hashContextSize
	copy(sig.PublicKey[:], buf[off:])
	off += 32
	sig.Elements = make([]ForsSignatureElement, k)
	for i := range sig.Elements {
		copy(sig.Elements[i].SecretKey[:], buf[off:])
		off += 32
		sig.Elements[i].AuthPath = make([][32]byte, a)
		for j := range sig.Elements[i].AuthPath {
			copy(sig.Elements[i].AuthPath[j][:], buf[off:])
			off += 32
		}
	}
	return sig, nil
}
