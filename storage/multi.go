package storage

import (
	"errors"

	"github.com/ipfs/go-cid"
)

// MultiCAS provides deterministic, ordered fallback across multiple CAS adapters.
//
// Hydration order is the slice order in Adapters; callers MUST supply a fixed order.
// This avoids map-iteration nondeterminism and makes the retrieval strategy explicit.
//
// Put is defined to write only to the first adapter.
//
// MultiCAS is typically used as the read path of a dag.Store that pulls
// blocks from a local cache first and remote backends after it.
type MultiCAS struct {
	Adapters []CAS
}

func (m MultiCAS) Put(prefix cid.Prefix, data []byte) (cid.Cid, error) {
	if len(m.Adapters) == 0 {
		return cid.Undef, errors.New("storage: MultiCAS has no adapters")
	}
	return m.Adapters[0].Put(prefix, data)
}

func (m MultiCAS) Get(id cid.Cid) ([]byte, error) {
	for _, cas := range m.Adapters {
		b, err := cas.Get(id)
		if err == nil {
			return b, nil
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m MultiCAS) Has(id cid.Cid) bool {
	for _, cas := range m.Adapters {
		if cas.Has(id) {
			return true
		}
	}
	return false
}
