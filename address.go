package sphincsplus

import "encoding/binary"

// Role distinguishes the three kinds of secret material the PRF derives:
// WOTS+ message-chain keys, WOTS+ checksum-chain keys, and FORS leaves.
//
//go:generate enumer -type Role
type Role uint8

const (
	RoleChecksumKey Role = 0x01
	RoleMessageKey  Role = 0x02
	RoleFors        Role = 0x03
)

// toByte encodes the role as the single byte the PRF mixes in.
func (r Role) toByte() byte { return byte(r) }

// Address identifies a node in the hypertree/FORS address space: a layer
// index and a horizontal position within that layer. It is a plain value
// type, copied freely, and never mutated in place once constructed.
type Address struct {
	Layer    uint16
	Position uint64
}

// addressSize is the wire length of Address.toBytes(): 2 bytes of layer
// plus 8 bytes of position, little-endian. See the §9 design note on
// position width: this module fixes Position at 64 bits, which covers
// every LAYERS*TREE_HEIGHT product named in the registry (all below 64) and
// keeps HashContext at the non-widened 42-byte encoding of §6.
const addressSize = 10

func (a Address) toBytes() []byte {
	buf := make([]byte, addressSize)
	a.writeInto(buf)
	return buf
}

func (a Address) writeInto(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], a.Layer)
	binary.LittleEndian.PutUint64(buf[2:10], a.Position)
}

func addressFromBytes(buf []byte) (Address, error) {
	if len(buf) != addressSize {
		return Address{}, errorf("address must be %d bytes, got %d", addressSize, len(buf))
	}
	return Address{
		Layer:    binary.LittleEndian.Uint16(buf[0:2]),
		Position: binary.LittleEndian.Uint64(buf[2:10]),
	}, nil
}

// HashContext is the public tweak mixed into every hash below the PRF: a
// public seed (constant for a keypair) plus the address of the node being
// derived. Two contexts that differ in any field are expected to produce
// independent hash outputs with overwhelming probability.
type HashContext struct {
	PublicSeed [32]byte
	Addr       Address
}

// hashContextSize is the wire length of HashContext.toBytes():
// 32 bytes of public seed plus the 10-byte Address.
const hashContextSize = 32 + addressSize

func (c HashContext) toBytes() []byte {
	buf := make([]byte, hashContextSize)
	c.writeInto(buf)
	return buf
}

func (c HashContext) writeInto(buf []byte) {
	copy(buf[0:32], c.PublicSeed[:])
	c.Addr.writeInto(buf[32:])
}

func hashContextFromBytes(buf []byte) (HashContext, error) {
	if len(buf) != hashContextSize {
		return HashContext{}, errorf("hash context must be %d bytes, got %d", hashContextSize, len(buf))
	}
	var c HashContext
	copy(c.PublicSeed[:], buf[0:32])
	addr, err := addressFromBytes(buf[32:])
	if err != nil {
		return HashContext{}, wrapErrorf(err, "decoding address")
	}
	c.Addr = addr
	return c, nil
}

// withPosition returns a copy of c with a different address position,
// keeping the layer and public seed fixed. Contexts are cheap value
// types derived per tree/leaf; this never aliases the receiver.
func (c HashContext) withPosition(position uint64) HashContext {
	c.Addr.Position = position
	return c
}
