package ipfs

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/multicodec"
	"xdao.co/cbor42/storage"
)

// CAS is a content-addressable store backed by the local Kubo "ipfs" CLI.
//
// This is an optional adapter package. The core library remains storage-provider
// agnostic; any external CAS can integrate by implementing storage.CAS.
//
// Properties:
// - Offline: operates on the local IPFS repo; does not require an IPFS daemon.
// - Deterministic: no wall-clock usage; validates bytes against the requested CID.
// - Best-effort: relies on an external "ipfs" binary (configurable).
//
// CID contract: the block is stored with the codec and multihash of the
// requested prefix and the CID Kubo reports must equal storage.Sum. Codecs
// are named via the multicodec registry, so only registered codecs can be
// written.
//
// Warning: This adapter is not authoritative. Transport/reachability is not
// validity; CID verification is.
//
// Note: This package name is "ipfs" for familiarity, but it does not embed a
// network client; it shells out to the local Kubo CLI.
type CAS struct {
	bin string
	env []string
}

type Options struct {
	// Bin is the path to the ipfs binary. If empty, "ipfs" is used.
	Bin string
	// Env optionally overrides the command environment (e.g. to set IPFS_PATH).
	// If nil, the process environment is used.
	Env []string
}

func New(opts Options) *CAS {
	bin := opts.Bin
	if bin == "" {
		bin = "ipfs"
	}
	return &CAS{bin: bin, env: opts.Env}
}

func (c *CAS) Put(prefix cid.Prefix, data []byte) (cid.Cid, error) {
	if prefix.Version != 1 {
		return cid.Undef, fmt.Errorf("ipfs: unsupported cid version %d", prefix.Version)
	}
	id, err := storage.Sum(prefix, data)
	if err != nil {
		return cid.Undef, err
	}
	codec, err := multicodec.Lookup(prefix.Codec)
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: %w", err)
	}

	// Explicit parameters so the CID matches the one derived locally.
	args := []string{
		"block", "put",
		"--quiet",
		"--cid-codec=" + codec.Name(),
		"--mhtype=" + cidutil.HashName(prefix.MhType),
	}
	if prefix.MhLength >= 0 {
		args = append(args, fmt.Sprintf("--mhlen=%d", prefix.MhLength))
	}
	args = append(args, "/dev/stdin")

	out, err := c.run(data, args...)
	if err != nil {
		return cid.Undef, err
	}

	got, err := cid.Decode(strings.TrimSpace(string(out)))
	if err != nil {
		return cid.Undef, fmt.Errorf("ipfs: unexpected block put output: %w", err)
	}
	if !got.Equals(id) {
		return cid.Undef, storage.ErrCIDMismatch
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}

	out, err := c.run(nil, "block", "get", id.String())
	if err != nil {
		if isLikelyNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	if err := storage.Verify(id, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := c.run(nil, "block", "stat", id.String())
	return err == nil
}

func (c *CAS) run(stdin []byte, args ...string) ([]byte, error) {
	cmd := exec.Command(c.bin, args...)
	if c.env != nil {
		cmd.Env = c.env
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		s := strings.TrimSpace(string(ee.Stderr))
		if s == "" {
			return nil, fmt.Errorf("ipfs: %v", err)
		}
		return nil, fmt.Errorf("ipfs: %s", s)
	}
	return nil, err
}

func isLikelyNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "block not found")
}
