// Package multicodec maps multicodec codes to block codecs.
//
// Codecs register themselves in init(); a program enables a codec by
// importing its package:
//
//	import _ "xdao.co/cbor42/cbor42"
package multicodec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/ipld"
)

// Codec converts between block bytes and values.
//
// Implementations must be stateless and safe for concurrent use.
type Codec interface {
	// Code is the multicodec code carried in CIDs of blocks in this format.
	Code() uint64
	Name() string
	Encode(v ipld.Value) ([]byte, error)
	Decode(data []byte) (ipld.Value, error)

	// References calls fn for every link in data, in wire order.
	References(data []byte, fn func(cid.Cid) error) error
}

var (
	mu     sync.RWMutex
	byCode = map[uint64]Codec{}
	byName = map[string]Codec{}
)

// Register registers c under its code and name.
func Register(c Codec) error {
	if c == nil {
		return fmt.Errorf("multicodec: nil codec")
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("multicodec: codec 0x%x has no name", c.Code())
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := byCode[c.Code()]; exists {
		return fmt.Errorf("multicodec: codec 0x%x already registered", c.Code())
	}
	if _, exists := byName[name]; exists {
		return fmt.Errorf("multicodec: codec %q already registered", name)
	}
	byCode[c.Code()] = c
	byName[name] = c
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(c Codec) {
	if err := Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the codec registered for code.
func Lookup(code uint64) (Codec, error) {
	mu.RLock()
	c, ok := byCode[code]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("multicodec: unknown codec 0x%x", code)
	}
	return c, nil
}

// LookupName returns the codec registered under name.
func LookupName(name string) (Codec, error) {
	mu.RLock()
	c, ok := byName[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("multicodec: unknown codec %q", name)
	}
	return c, nil
}

// ForCID returns the codec for the blocks addressed by id.
func ForCID(id cid.Cid) (Codec, error) { return Lookup(id.Type()) }

// List returns all registered codecs sorted by code.
func List() []Codec {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Codec, 0, len(byCode))
	for _, c := range byCode {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code() < out[j].Code() })
	return out
}
