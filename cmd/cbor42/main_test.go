package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
)

type result struct {
	code int
	out  string
	err  string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), err: errOut.String()}
}

func mustSucceed(t *testing.T, r result) string {
	t.Helper()
	if r.code != 0 {
		t.Fatalf("exit %d: %s", r.code, r.err)
	}
	return r.out
}

func TestRun_Usage(t *testing.T) {
	if r := runCLI(t, ""); r.code != 2 {
		t.Fatalf("no args: exit %d", r.code)
	}
	if r := runCLI(t, "", "frobnicate"); r.code != 2 || !strings.Contains(r.err, "unknown command") {
		t.Fatalf("unknown command: exit %d, %q", r.code, r.err)
	}
	if r := runCLI(t, "", "help"); r.code != 0 || !strings.Contains(r.out, "cbor42 encode") {
		t.Fatalf("help: exit %d", r.code)
	}
	if r := runCLI(t, "", "decode", "--no-such-flag"); r.code != 2 {
		t.Fatalf("bad flag: exit %d", r.code)
	}
}

func TestEncodeDecode(t *testing.T) {
	out := mustSucceed(t, runCLI(t, `{"b": 1, "a": [true, null]}`, "encode", "--hex"))
	if out != "a2616182f5f6616201\n" {
		t.Fatalf("encode: got %q", out)
	}

	out = mustSucceed(t, runCLI(t, "a2 6161 82f5f6 6162 01", "decode", "--hex"))
	if out != `{"a":[true,null],"b":1}`+"\n" {
		t.Fatalf("decode: got %q", out)
	}

	r := runCLI(t, "a16161", "decode", "--hex")
	if r.code != 1 || !strings.Contains(r.err, "decode") {
		t.Fatalf("truncated decode: exit %d, %q", r.code, r.err)
	}
	r = runCLI(t, "818180", "decode", "--hex", "--max-depth", "2")
	if r.code != 1 {
		t.Fatalf("depth limit: exit %d", r.code)
	}
}

func TestEncode_BinaryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.json")
	if err := os.WriteFile(path, []byte(`{"/": {"bytes": "AQI"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustSucceed(t, runCLI(t, "", "encode", path))
	if !bytes.Equal([]byte(out), []byte{0x42, 0x01, 0x02}) {
		t.Fatalf("encode bytes: got %x", out)
	}
}

func TestDiag(t *testing.T) {
	out := mustSucceed(t, runCLI(t, "a1616101 f5", "diag", "--hex"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"a"`) || lines[1] != "true" {
		t.Fatalf("diag: got %q", out)
	}

	// Half precision infinity is well formed CBOR but not a cbor42 value.
	out = mustSucceed(t, runCLI(t, "f97c00", "diag", "--hex"))
	if strings.TrimSpace(out) != "Infinity" {
		t.Fatalf("diag infinity: got %q", out)
	}
	if r := runCLI(t, "f97c00", "diag", "--hex", "--strict"); r.code != 1 {
		t.Fatalf("strict diag: exit %d", r.code)
	}
}

func TestCIDAndRefs(t *testing.T) {
	leaf, err := cidutil.Sum(cidutil.Prefix(cid.Raw), []byte("leaf"))
	if err != nil {
		t.Fatal(err)
	}
	doc := `{"leaf": {"/": "` + leaf.String() + `"}}`
	block := []byte(mustSucceed(t, runCLI(t, doc, "encode")))

	want, err := cidutil.Sum(cidutil.Prefix(cbor42.Code), block)
	if err != nil {
		t.Fatal(err)
	}
	out := mustSucceed(t, runCLI(t, string(block), "cid"))
	if strings.TrimSpace(out) != want.String() {
		t.Fatalf("cid: got %s want %s", out, want)
	}

	out = mustSucceed(t, runCLI(t, string(block), "refs"))
	if strings.TrimSpace(out) != leaf.String() {
		t.Fatalf("refs: got %q", out)
	}

	out = mustSucceed(t, runCLI(t, "leaf", "cid", "--codec", "raw"))
	if strings.TrimSpace(out) != leaf.String() {
		t.Fatalf("raw cid: got %s want %s", out, leaf)
	}

	if r := runCLI(t, "\xff", "cid"); r.code != 1 {
		t.Fatalf("invalid block: exit %d", r.code)
	}
	if r := runCLI(t, "", "cid", "--codec", "nope"); r.code != 2 {
		t.Fatalf("unknown codec: exit %d", r.code)
	}
}

func TestCodecs(t *testing.T) {
	out := mustSucceed(t, runCLI(t, "", "codecs"))
	if !strings.Contains(out, "0x51\tcbor") || !strings.Contains(out, "0x55\traw") {
		t.Fatalf("codecs: got %q", out)
	}
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	leaf := strings.TrimSpace(mustSucceed(t, runCLI(t, "leaf bytes", "put", "--localfs-dir", dir, "--codec", "raw")))
	root := strings.TrimSpace(mustSucceed(t, runCLI(t,
		`{"name": "root", "child": {"/": "`+leaf+`"}}`,
		"put", "--localfs-dir", dir, "--json")))

	out := mustSucceed(t, runCLI(t, "", "get", "--localfs-dir", dir, "--cid", root, "--json"))
	if out != `{"child":{"/":"`+leaf+`"},"name":"root"}`+"\n" {
		t.Fatalf("get --json: got %q", out)
	}
	out = mustSucceed(t, runCLI(t, "", "get", "--localfs-dir", dir, "--cid", leaf))
	if out != "leaf bytes" {
		t.Fatalf("get raw: got %q", out)
	}

	out = mustSucceed(t, runCLI(t, "", "closure", "--localfs-dir", dir, root))
	if out != root+"\n"+leaf+"\n" {
		t.Fatalf("closure: got %q", out)
	}

	bundlePath := filepath.Join(t.TempDir(), "graph.tar.zst")
	mustSucceed(t, runCLI(t, "", "export", "--localfs-dir", dir, "--out", bundlePath, "--compression", "zstd", root))

	other := t.TempDir()
	mustSucceed(t, runCLI(t, "", "import", "--localfs-dir", other, bundlePath))
	out = mustSucceed(t, runCLI(t, "", "closure", "--localfs-dir", other, root))
	if out != root+"\n"+leaf+"\n" {
		t.Fatalf("closure after import: got %q", out)
	}
}

func TestStoreCommands_Errors(t *testing.T) {
	dir := t.TempDir()
	if r := runCLI(t, "", "get", "--localfs-dir", dir); r.code != 2 {
		t.Fatalf("missing --cid: exit %d", r.code)
	}
	if r := runCLI(t, "", "get", "--localfs-dir", dir, "--cid", "not-a-cid"); r.code != 1 {
		t.Fatalf("bad cid: exit %d", r.code)
	}
	if r := runCLI(t, "\xa1", "put", "--localfs-dir", dir); r.code != 1 {
		t.Fatalf("invalid block: exit %d", r.code)
	}
	if r := runCLI(t, "x", "put", "--backend", "nope"); r.code != 1 || !strings.Contains(r.err, "unknown backend") {
		t.Fatalf("unknown backend: exit %d, %q", r.code, r.err)
	}
	if r := runCLI(t, "", "export", "--localfs-dir", dir, "--out", filepath.Join(dir, "b"), "--compression", "brotli", "x"); r.code != 2 {
		t.Fatalf("bad compression: exit %d", r.code)
	}
}

func TestStoreCommands_Config(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	cfg := filepath.Join(t.TempDir(), "cas.yaml")
	content := "write_policy: all\nbackends:\n" +
		"  - {name: localfs, id: a, config: {localfs-dir: " + dirA + "}}\n" +
		"  - {name: localfs, id: b, config: {localfs-dir: " + dirB + "}}\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	id := strings.TrimSpace(mustSucceed(t, runCLI(t, "replicated", "put", "--config", cfg, "--codec", "raw")))
	for _, dir := range []string{dirA, dirB} {
		out := mustSucceed(t, runCLI(t, "", "get", "--localfs-dir", dir, "--cid", id))
		if out != "replicated" {
			t.Fatalf("replica %s: got %q", dir, out)
		}
	}
}

func TestListBackends(t *testing.T) {
	out := mustSucceed(t, runCLI(t, "", "list-backends"))
	for _, name := range []string{"grpc", "ipfs", "localfs"} {
		if !strings.Contains(out, name) {
			t.Fatalf("list-backends missing %s: %q", name, out)
		}
	}
}
