// Package cbor42 implements the canonical CBOR subset used for content
// addressed blocks (multicodec 0x51), with links carried as tag 42.
//
// Encoding is deterministic: every integer, length and tag uses the
// smallest width that holds it, map entries are written in bytewise key
// order and floats use the narrowest exact precision. Semantically equal
// values therefore always encode to identical bytes and hash to the same
// CID.
//
// Decoding accepts any width but rejects indefinite-length items,
// half-precision floats, tags other than 42 and links in any form other
// than the one the encoder produces for CIDs of 23 bytes or more:
//
//	d8 2a 58 <len> 00 <cid bytes>
//
// Non-finite floats encode to half-precision forms (f9 7c00, f9 fc00,
// f9 7e00) that the decoder rejects, so they do not round trip.
//
// Type-directed decoding is built from TryReader functions, which claim or
// decline an item from its leading byte. Read turns a decline into a
// KindUnexpectedCode error:
//
//	r := cbor42.NewReader(src)
//	names, err := cbor42.Read(r, cbor42.TryList(cbor42.TryString))
package cbor42
