package cbor42

import (
	"github.com/ipfs/go-cid"
)

// ScanLinks reads one complete item and calls fn for every link in it, in
// the order they appear on the wire. It accepts and rejects exactly what
// ReadValue does, but byte strings are skipped and no value tree is built.
// An error returned by fn stops the scan and is returned unchanged.
func (r *Reader) ScanLinks(fn func(cid.Cid) error) error {
	start := r.off
	lead, err := r.ReadU8()
	if err != nil {
		return err
	}
	ok, err := r.scan(lead, fn)
	if err != nil {
		return err
	}
	if !ok {
		return unexpectedCode(start, lead)
	}
	return nil
}

func (r *Reader) scan(lead byte, fn func(cid.Cid) error) (bool, error) {
	major, info := split(lead)
	switch major {
	case MajorUnsigned, MajorNegative:
		_, ok, err := r.readArg(info)
		return ok, err

	case MajorBytes:
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return ok, err
		}
		return true, r.Skip(n)

	case MajorText:
		_, ok, err := TryString(r, lead)
		return ok, err

	case MajorList, MajorMap:
		n, ok, err := r.readLen(info)
		if !ok || err != nil {
			return ok, err
		}
		if err := r.enter(); err != nil {
			return false, err
		}
		defer r.leave()
		for range n {
			if major == MajorMap {
				if _, err := Read(r, TryString); err != nil {
					return false, err
				}
			}
			if err := r.ScanLinks(fn); err != nil {
				return false, err
			}
		}
		return true, nil

	case MajorTag:
		if info >= infoReserved {
			return false, nil
		}
		c, ok, err := TryLink(r, lead)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, unknownTagForm(r.off-1, lead)
		}
		return true, fn(c)
	}

	_, ok, err := TryValue(r, lead)
	return ok, err
}
