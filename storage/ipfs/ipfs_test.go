package ipfs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/storage"
)

// fakeIPFS writes a stand-in ipfs binary that records its arguments and
// prints $FAKE_CID.
func fakeIPFS(t *testing.T) (bin, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	bin = filepath.Join(dir, "ipfs")
	argsFile = filepath.Join(dir, "args")
	script := "#!/bin/sh\necho \"$@\" > \"$ARGS_FILE\"\ncat > /dev/null\necho \"$FAKE_CID\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, argsFile
}

func TestIPFS_PutPassesPrefix(t *testing.T) {
	bin, argsFile := fakeIPFS(t)
	data := []byte{0xa1, 0x61, 0x61, 0x01}
	prefix := cidutil.Prefix(cbor42.Code)
	want, err := cidutil.Sum(prefix, data)
	if err != nil {
		t.Fatal(err)
	}

	cas := New(Options{Bin: bin, Env: []string{"PATH=" + os.Getenv("PATH"), "ARGS_FILE=" + argsFile, "FAKE_CID=" + want.String()}})
	got, err := cas.Put(prefix, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !got.Equals(want) {
		t.Fatalf("Put CID: got %s want %s", got, want)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, flag := range []string{"--cid-codec=cbor", "--mhtype=sha2-256"} {
		if !strings.Contains(string(args), flag) {
			t.Fatalf("expected %s in %q", flag, args)
		}
	}
	if strings.Contains(string(args), "--mhlen") {
		t.Fatalf("default length should not be passed: %q", args)
	}
}

func TestIPFS_PutDetectsMismatch(t *testing.T) {
	bin, argsFile := fakeIPFS(t)
	other, err := cidutil.CIDv1RawSHA256CID([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	cas := New(Options{Bin: bin, Env: []string{"PATH=" + os.Getenv("PATH"), "ARGS_FILE=" + argsFile, "FAKE_CID=" + other.String()}})
	_, err = cas.Put(cidutil.Prefix(cid.Raw), []byte("payload"))
	if err != storage.ErrCIDMismatch {
		t.Fatalf("got %v want %v", err, storage.ErrCIDMismatch)
	}
}

func TestIPFS_PutRejectsUnregisteredCodec(t *testing.T) {
	cas := New(Options{Bin: "/nonexistent/ipfs"})
	_, err := cas.Put(cidutil.Prefix(0x300001), []byte("x"))
	if err == nil {
		t.Fatalf("expected error for unregistered codec")
	}
}
