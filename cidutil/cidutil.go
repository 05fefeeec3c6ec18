// Package cidutil derives and checks CIDs for blocks.
//
// The default CID contract is CIDv1 with the block's codec and a sha2-256
// multihash. Any hash function registered with go-multihash can be
// selected by name.
package cidutil

import (
	"fmt"
	"sort"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// DefaultHash is the multihash function used when none is named.
const DefaultHash = multihash.SHA2_256

// Prefix returns the default CIDv1 prefix for blocks in codec.
func Prefix(codec uint64) cid.Prefix {
	return cid.Prefix{
		Version:  1,
		Codec:    codec,
		MhType:   DefaultHash,
		MhLength: -1,
	}
}

// PrefixWithHash returns a CIDv1 prefix for codec using the named multihash
// function, e.g. "sha2-256" or "blake3". An empty name selects DefaultHash.
func PrefixWithHash(codec uint64, hash string) (cid.Prefix, error) {
	p := Prefix(codec)
	if hash == "" {
		return p, nil
	}
	code, err := HashCode(hash)
	if err != nil {
		return cid.Prefix{}, err
	}
	p.MhType = code
	return p, nil
}

// HashCode returns the multihash code for name.
func HashCode(name string) (uint64, error) {
	code, ok := multihash.Names[name]
	if !ok {
		return 0, fmt.Errorf("cidutil: unknown hash function %q", name)
	}
	return code, nil
}

// HashName returns the multihash name for code, or its hex form when
// unnamed.
func HashName(code uint64) string {
	if name, ok := multihash.Codes[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", code)
}

// HashNames lists the hash functions that can be named, sorted.
func HashNames() []string {
	out := make([]string, 0, len(multihash.Names))
	for name, code := range multihash.Names {
		if code == multihash.IDENTITY {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Sum derives the CID of data under p.
func Sum(p cid.Prefix, data []byte) (cid.Cid, error) {
	if p.Version == 0 && (p.Codec != cid.DagProtobuf || p.MhType != multihash.SHA2_256) {
		return cid.Undef, fmt.Errorf("cidutil: CIDv0 requires dag-pb and sha2-256")
	}
	id, err := p.Sum(data)
	if err != nil {
		return cid.Undef, fmt.Errorf("cidutil: %w", err)
	}
	return id, nil
}

// Matches reports whether id addresses data. It fails only when the hash
// function in id is not available.
func Matches(id cid.Cid, data []byte) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	got, err := id.Prefix().Sum(data)
	if err != nil {
		return false, fmt.Errorf("cidutil: %w", err)
	}
	return got.Equals(id), nil
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	return Sum(Prefix(cid.Raw), data)
}
