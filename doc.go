// Package sphincsplus implements a stateless, hash-based post-quantum
// signature scheme in the SPHINCS+ family: a layered composition of
// WOTS+ one-time signatures, fixed-height Merkle authentication trees,
// a multi-layer hypertree, and a FORS few-time signature anchored at a
// pseudo-randomly chosen hypertree leaf.
//
// The scheme is parameterised by four integers: K and A for FORS, and
// Layers and TreeHeight for the hypertree. Security level, signature
// size and signing cost all follow from these four numbers; see Params
// and NewContext.
//
// Everything in this package is a pure function of its arguments: signing
// with the same seed and timestamp is deterministic, and verification
// never mutates state. There is no persisted state beyond the byte
// encodings documented on each type's MarshalBinary/UnmarshalBinary pair,
// and the optional on-disk subtree cache a Signer writes to when one is
// attached with WithCache.
package sphincsplus
