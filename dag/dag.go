// Package dag stores linked values as blocks in a CAS.
//
// A block's codec is taken from its CID and resolved through the
// multicodec registry, so any registered codec can take part in a graph.
// Values are written with the cbor42 codec unless another is named.
package dag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/multicodec"
	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/bundle"
)

var ErrMissingCAS = errors.New("dag: missing CAS")

// Store reads and writes values through CAS.
type Store struct {
	CAS storage.CAS

	// Hash names the multihash function for new blocks. Empty selects
	// cidutil.DefaultHash.
	Hash string

	// SkipMissing makes Walk, Closure and Export pass over links to
	// blocks the CAS does not hold instead of failing.
	SkipMissing bool

	// Logger receives a debug record per skipped block. Nil discards.
	Logger *slog.Logger
}

func (s Store) cas() (storage.CAS, error) {
	if s.CAS == nil {
		return nil, ErrMissingCAS
	}
	return s.CAS, nil
}

func (s Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

// Put encodes v with the cbor42 codec and stores the block.
func (s Store) Put(v ipld.Value) (cid.Cid, error) {
	return s.PutWith(cbor42.Code, v)
}

// PutWith encodes v with the codec registered for code and stores the
// block.
func (s Store) PutWith(code uint64, v ipld.Value) (cid.Cid, error) {
	c, err := multicodec.Lookup(code)
	if err != nil {
		return cid.Undef, err
	}
	data, err := c.Encode(v)
	if err != nil {
		return cid.Undef, fmt.Errorf("dag: encode: %w", err)
	}
	return s.putBlock(code, data)
}

// PutBlock stores already encoded data after checking that it decodes
// under codec code.
func (s Store) PutBlock(code uint64, data []byte) (cid.Cid, error) {
	c, err := multicodec.Lookup(code)
	if err != nil {
		return cid.Undef, err
	}
	if _, err := c.Decode(data); err != nil {
		return cid.Undef, fmt.Errorf("dag: block is not valid %s: %w", c.Name(), err)
	}
	return s.putBlock(code, data)
}

func (s Store) putBlock(code uint64, data []byte) (cid.Cid, error) {
	cas, err := s.cas()
	if err != nil {
		return cid.Undef, err
	}
	p, err := cidutil.PrefixWithHash(code, s.Hash)
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(p, data)
}

// Block returns the verified bytes of id.
func (s Store) Block(id cid.Cid) ([]byte, error) {
	cas, err := s.cas()
	if err != nil {
		return nil, err
	}
	b, err := cas.Get(id)
	if err != nil {
		return nil, err
	}
	if err := storage.Verify(id, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Get loads and decodes the block addressed by id.
func (s Store) Get(id cid.Cid) (ipld.Value, error) {
	c, err := multicodec.ForCID(id)
	if err != nil {
		return nil, err
	}
	b, err := s.Block(id)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("dag: decode %s: %w", id, err)
	}
	return v, nil
}

// Links returns the links held by the block addressed by id, in wire
// order.
func (s Store) Links(id cid.Cid) ([]cid.Cid, error) {
	b, err := s.Block(id)
	if err != nil {
		return nil, err
	}
	return blockLinks(id, b)
}

func blockLinks(id cid.Cid, b []byte) ([]cid.Cid, error) {
	c, err := multicodec.ForCID(id)
	if err != nil {
		return nil, err
	}
	var out []cid.Cid
	err = c.References(b, func(l cid.Cid) error {
		out = append(out, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dag: references of %s: %w", id, err)
	}
	return out, nil
}

// WalkFunc is called once per reachable block.
type WalkFunc func(id cid.Cid, data []byte) error

// Walk visits every block reachable from roots exactly once, depth first
// in link order. ctx is checked before each block is loaded.
func (s Store) Walk(ctx context.Context, roots []cid.Cid, fn WalkFunc) error {
	seen := make(map[cid.Cid]struct{})
	var visit func(id cid.Cid) error
	visit = func(id cid.Cid) error {
		if _, ok := seen[id]; ok {
			return nil
		}
		seen[id] = struct{}{}
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := s.Block(id)
		if err != nil {
			if s.SkipMissing && storage.IsNotFound(err) {
				s.logger().Debug("skipping missing block", "cid", id.String())
				return nil
			}
			return fmt.Errorf("dag: load %s: %w", id, err)
		}
		if err := fn(id, b); err != nil {
			return err
		}
		links, err := blockLinks(id, b)
		if err != nil {
			return err
		}
		for _, l := range links {
			if err := visit(l); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if !root.Defined() {
			return storage.ErrInvalidCID
		}
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

// Closure returns the CIDs of every block reachable from roots, in walk
// order.
func (s Store) Closure(ctx context.Context, roots ...cid.Cid) ([]cid.Cid, error) {
	var out []cid.Cid
	err := s.Walk(ctx, roots, func(id cid.Cid, _ []byte) error {
		out = append(out, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Export writes a bundle holding the closure of roots. Roots are labeled
// "root" (or "root.N" for several) unless opts already carries labels.
func (s Store) Export(ctx context.Context, w io.Writer, roots []cid.Cid, opts bundle.ExportOptions) error {
	cas, err := s.cas()
	if err != nil {
		return err
	}
	ids, err := s.Closure(ctx, roots...)
	if err != nil {
		return err
	}
	if opts.Labels == nil && opts.IncludeIndex {
		opts.Labels = make(map[string]cid.Cid, len(roots))
		for i, r := range roots {
			name := "root"
			if len(roots) > 1 {
				name = fmt.Sprintf("root.%d", i)
			}
			opts.Labels[name] = r
		}
	}
	return bundle.Export(w, cas, ids, opts)
}
