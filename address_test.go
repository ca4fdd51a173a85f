package sphincsplus

import "testing"

func TestAddressRoundtrip(t *testing.T) {
	addrs := []Address{
		{Layer: 0, Position: 0},
		{Layer: 1, Position: 1},
		{Layer: 0xffff, Position: 0xffffffffffffffff},
		{Layer: 7, Position: 123456789},
	}
	for _, a := range addrs {
		buf := a.toBytes()
		if len(buf) != addressSize {
			t.Fatalf("Address.toBytes() returned %d bytes, want %d", len(buf), addressSize)
		}
		a2, err := addressFromBytes(buf)
		if err != nil {
			t.Fatalf("addressFromBytes(%v): %v", buf, err)
		}
		if a2 != a {
			t.Fatalf("roundtrip mismatch: got %+v, want %+v", a2, a)
		}
	}
}

func TestAddressFromBytesRejectsWrongLength(t *testing.T) {
	if _, err := addressFromBytes(make([]byte, addressSize-1)); err == nil {
		t.Fatal("expected error decoding short address")
	}
	if _, err := addressFromBytes(make([]byte, addressSize+1)); err == nil {
		t.Fatal("expected error decoding long address")
	}
}

func TestHashContextRoundtrip(t *testing.T) {
	var ctx HashContext
	for i := range ctx.PublicSeed {
		ctx.PublicSeed[i] = byte(i)
	}
	ctx.Addr = Address{Layer: 3, Position: 98765}

	buf := ctx.toBytes()
	if len(buf) != hashContextSize {
		t.Fatalf("HashContext.toBytes() returned %d bytes, want %d", len(buf), hashContextSize)
	}
	ctx2, err := hashContextFromBytes(buf)
	if err != nil {
		t.Fatalf("hashContextFromBytes: %v", err)
	}
	if ctx2 != ctx {
		t.Fatalf("roundtrip mismatch: got %+v, want %+v", ctx2, ctx)
	}
}

func TestHashContextWithPosition(t *testing.T) {
	var ctx HashContext
	ctx.Addr = Address{Layer: 2, Position: 5}
	moved := ctx.withPosition(9)
	if moved.Addr.Position != 9 || moved.Addr.Layer != 2 {
		t.Fatalf("withPosition produced %+v", moved.Addr)
	}
	if ctx.Addr.Position != 5 {
		t.Fatalf("withPosition mutated receiver: %+v", ctx.Addr)
	}
}
