package sphincsplus

import "testing"

// TestMessageToIndices checks the worked example from spec.md §8
// invariant 9: K=10, A=14, message=[0xAA,0xFF,0xBB,0x00] (rest zero).
func TestMessageToIndices(t *testing.T) {
	msg := []byte{0xAA, 0xFF, 0xBB, 0x00}
	got := messageToIndices(10, 14, msg)
	want := []uint64{10943, 15280, 0, 0, 0, 0, 0, 0, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("messageToIndices returned %d indices, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// TestMessageToIndicesAllOnes checks that an all-0xFF message of
// sufficient length maxes out every index.
func TestMessageToIndicesAllOnes(t *testing.T) {
	const k, a = 10, 14
	n := (k*a + 7) / 8
	msg := make([]byte, n)
	for i := range msg {
		msg[i] = 0xff
	}
	got := messageToIndices(k, a, msg)
	want := uint64(1)<<a - 1
	for i, idx := range got {
		if idx != want {
			t.Fatalf("indices[%d] = %d, want %d", i, idx, want)
		}
	}
}

// TestMessageToIndicesPadsShortMessages checks that a message shorter
// than ceil(K*A/8) bytes is treated as right-zero-padded.
func TestMessageToIndicesPadsShortMessages(t *testing.T) {
	got := messageToIndices(4, 4, nil)
	for i, idx := range got {
		if idx != 0 {
			t.Fatalf("indices[%d] = %d, want 0 for empty message", i, idx)
		}
	}
}

func forsTestContext() HashContext {
	var ctx HashContext
	ctx.PublicSeed = [32]byte{9, 8, 7}
	ctx.Addr = Address{Layer: 0, Position: 123}
	return ctx
}

func TestForsSignVerify(t *testing.T) {
	const k, a = 4, 4
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	ctx := forsTestContext()
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i * 7)
	}

	sig, err := signForsTree(1, seed, ctx, k, a, digest)
	if err != nil {
		t.Fatalf("signForsTree: %v", err)
	}
	if len(sig.Elements) != k {
		t.Fatalf("got %d FORS elements, want %d", len(sig.Elements), k)
	}

	reconstructed := forsPublicKeyFromSignature(sig, k, a, digest)
	if reconstructed != sig.PublicKey {
		t.Fatal("FORS signature failed to self-verify")
	}
}

func TestForsVerifyRejectsWrongDigest(t *testing.T) {
	const k, a = 4, 4
	seed := make([]byte, 32)
	ctx := forsTestContext()
	var digest, other [32]byte
	other[0] = 1

	sig, err := signForsTree(1, seed, ctx, k, a, digest)
	if err != nil {
		t.Fatalf("signForsTree: %v", err)
	}
	if forsPublicKeyFromSignature(sig, k, a, other) == sig.PublicKey {
		t.Fatal("FORS reconstruction should differ for a different digest")
	}
}

// TestForsAddressSensitivity checks that two FORS instances with
// identical seed and public seed but different Address.Position yield
// distinct public keys, per spec.md §8 scenario S5.
func TestForsAddressSensitivity(t *testing.T) {
	const k, a = 4, 4
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	ctx1 := HashContext{PublicSeed: [32]byte{1, 2, 3}, Addr: Address{Layer: 0, Position: 1}}
	ctx2 := HashContext{PublicSeed: [32]byte{1, 2, 3}, Addr: Address{Layer: 0, Position: 2}}

	sig1, err := signForsTree(1, seed, ctx1, k, a, digest)
	if err != nil {
		t.Fatalf("signForsTree: %v", err)
	}
	sig2, err := signForsTree(1, seed, ctx2, k, a, digest)
	if err != nil {
		t.Fatalf("signForsTree: %v", err)
	}
	if sig1.PublicKey == sig2.PublicKey {
		t.Fatal("FORS public keys should differ across addresses")
	}
}

func TestForsSignatureMarshalRoundtrip(t *testing.T) {
	const k, a = 4, 4
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(3 * i)
	}
	ctx := forsTestContext()
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i)
	}

	sig, err := signForsTree(1, seed, ctx, k, a, digest)
	if err != nil {
		t.Fatalf("signForsTree: %v", err)
	}
	buf, err := sig.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != forsSignatureSize(k, a) {
		t.Fatalf("MarshalBinary returned %d bytes, want %d", len(buf), forsSignatureSize(k, a))
	}
	sig2, err := unmarshalForsSignature(buf, k, a)
	if err != nil {
		t.Fatalf("unmarshalForsSignature: %v", err)
	}
	if sig2.PublicKey != sig.PublicKey || sig2.Context != sig.Context || len(sig2.Elements) != len(sig.Elements) {
		t.Fatalf("roundtrip mismatch")
	}
}
