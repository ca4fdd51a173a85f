package sphincsplus

import "testing"

func testContext() HashContext {
	var ctx HashContext
	for i := range ctx.PublicSeed {
		ctx.PublicSeed[i] = byte(i)
	}
	ctx.Addr = Address{Layer: 1, Position: 42}
	return ctx
}

// TestRepeatHashZero checks repeat_hash(x, 0, ctx) == x.
func TestRepeatHashZero(t *testing.T) {
	ctx := testContext()
	var x [32]byte
	for i := range x {
		x[i] = byte(7 * i)
	}
	if got := repeatHash(x, 0, ctx); got != x {
		t.Fatalf("repeatHash(x, 0, ctx) = %x, want %x", got, x)
	}
}

// TestChainLaw checks complement_hash(repeat_hash(x,k,ctx),k,ctx) ==
// repeat_hash(x,255,ctx) for several k, per spec.md §8 invariant 6.
func TestChainLaw(t *testing.T) {
	ctx := testContext()
	var x [32]byte
	for i := range x {
		x[i] = byte(3 * i)
	}
	full := repeatHash(x, 255, ctx)
	for _, k := range []uint16{0, 1, 17, 128, 254, 255} {
		mid := repeatHash(x, k, ctx)
		got := complementHash(mid, k, ctx)
		if got != full {
			t.Fatalf("k=%d: complementHash(repeatHash(x,%d,ctx),%d,ctx) = %x, want %x", k, k, k, got, full)
		}
	}
}

// TestContextIndependence checks that changing any field of HashContext
// changes the repeatHash output, per spec.md §8 invariant 7.
func TestContextIndependence(t *testing.T) {
	base := testContext()
	var x [32]byte
	for i := range x {
		x[i] = byte(i)
	}
	baseOut := repeatHash(x, 13, base)

	seedChanged := base
	seedChanged.PublicSeed[0] ^= 0xff
	if out := repeatHash(x, 13, seedChanged); out == baseOut {
		t.Fatal("changing public seed did not change repeatHash output")
	}

	layerChanged := base
	layerChanged.Addr.Layer++
	if out := repeatHash(x, 13, layerChanged); out == baseOut {
		t.Fatal("changing layer did not change repeatHash output")
	}

	posChanged := base
	posChanged.Addr.Position++
	if out := repeatHash(x, 13, posChanged); out == baseOut {
		t.Fatal("changing position did not change repeatHash output")
	}
}

// TestPairOrdering checks pairKeys([a,b],s) != pairKeys([b,a],s) whenever
// a != b, per spec.md §8 invariant 8.
func TestPairOrdering(t *testing.T) {
	var a, b, seed [32]byte
	for i := range a {
		a[i] = byte(i)
		b[i] = byte(255 - i)
		seed[i] = byte(2 * i)
	}
	ab := pairKeys([][32]byte{a, b}, seed)
	ba := pairKeys([][32]byte{b, a}, seed)
	if ab[0] == ba[0] {
		t.Fatal("pairKeys is order-independent, expected order to matter")
	}
}

func TestPairKeysPanicsOnOddInput(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected pairKeys to panic on odd-length input")
		}
	}()
	var seed [32]byte
	pairKeys(make([][32]byte, 3), seed)
}

// TestFold checks fold XORs the two halves of its input.
func TestFold(t *testing.T) {
	var combined [32]byte
	for i := 0; i < 16; i++ {
		combined[i] = byte(i)
		combined[16+i] = byte(i + 1)
	}
	out := fold(combined)
	for i := 0; i < 16; i++ {
		want := combined[i] ^ combined[16+i]
		if out[i] != want {
			t.Fatalf("fold()[%d] = %d, want %d", i, out[i], want)
		}
	}
}

func TestHashArrayConcatenatesInOrder(t *testing.T) {
	a := []byte("hello")
	b := []byte("world")
	if hashArray(a, b) == hashArray(b, a) {
		t.Fatal("hashArray should depend on argument order")
	}
	if hashArray(a, b) != hashMessage(a, b) {
		t.Fatal("hashArray should be exactly hashMessage on its concatenated inputs")
	}
}
