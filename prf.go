package sphincsplus

import "encoding/binary"

// prf is the single source of secret material below the master seed
//:
//
//	PRF(seed, address, role, role_pos) :=
//	    H( seed ‖ address.to_bytes() ‖ role.to_bytes() ‖ role_pos.to_le_bytes_8() )
//
// Every chain start, FORS leaf and Merkle-subtree secret is this
// function evaluated at a distinct (address, role, role_pos). Two calls
// with identical arguments return identical output; two calls differing in any argument are
// expected to return independent output.
func prf(seed []byte, addr Address, role Role, rolePos uint64) [32]byte {
	var rolePosBuf [8]byte
	binary.LittleEndian.PutUint64(rolePosBuf[:], rolePos)
	return hashMessage(seed, addr.toBytes(), []byte{role.toByte()}, rolePosBuf[:])
}
