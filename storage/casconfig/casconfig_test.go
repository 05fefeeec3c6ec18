package casconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casconfig"
	"xdao.co/cbor42/storage/casregistry"
	_ "xdao.co/cbor42/storage/localfs"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_YAMLAndJSONCAgree(t *testing.T) {
	yamlPath := writeConfig(t, "cas.yaml", `
write_policy: all
backends:
  - name: localfs
    id: a
    config: {localfs-dir: /tmp/a}
  - name: localfs
    id: b
    config:
      localfs-dir: /tmp/b
`)
	jsonPath := writeConfig(t, "cas.json", `{
  // two replicas
  "write_policy": "all",
  "backends": [
    {"name": "localfs", "id": "a", "config": {"localfs-dir": "/tmp/a"}},
    {"name": "localfs", "id": "b", "config": {"localfs-dir": "/tmp/b"}},
  ],
}`)

	y, err := casconfig.LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	j, err := casconfig.LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("jsonc: %v", err)
	}
	if len(y.Backends) != 2 || len(j.Backends) != 2 {
		t.Fatalf("expected two backends, got %d and %d", len(y.Backends), len(j.Backends))
	}
	for i := range y.Backends {
		if y.Backends[i].ID != j.Backends[i].ID || y.Backends[i].Config["localfs-dir"] != j.Backends[i].Config["localfs-dir"] {
			t.Fatalf("backend %d differs: %+v vs %+v", i, y.Backends[i], j.Backends[i])
		}
	}
	if y.WritePolicy != "all" || j.WritePolicy != "all" {
		t.Fatalf("write policy not parsed")
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		format casconfig.Format
		in     string
	}{
		{"no backends", casconfig.FormatJSON, `{"backends": []}`},
		{"duplicate id", casconfig.FormatJSON, `{"backends": [{"name":"localfs"},{"name":"localfs"}]}`},
		{"bad policy", casconfig.FormatYAML, "write_policy: some\nbackends: [{name: localfs}]\n"},
		{"unknown field", casconfig.FormatYAML, "backend: [{name: localfs}]\n"},
		{"unknown json field", casconfig.FormatJSON, `{"backends": [{"name":"localfs"}], "extra": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := casconfig.Parse([]byte(tc.in), tc.format); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOpen_ReplicatesAcrossBackends(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	cfg := casconfig.Config{
		WritePolicy: "all",
		Backends: []casconfig.BackendConfig{
			{Name: "localfs", ID: "a", Config: map[string]string{"localfs-dir": dirA}},
			{Name: "localfs", ID: "b", Config: map[string]string{"localfs-dir": dirB}},
		},
	}
	cas, closeFn, err := cfg.Open(casregistry.UsageCLI, "b")
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	rep, ok := cas.(storage.ReplicatingCAS)
	if !ok {
		t.Fatalf("expected ReplicatingCAS, got %T", cas)
	}
	if rep.Backends[0].Name != "b" {
		t.Fatalf("preferred backend not first: %s", rep.Backends[0].Name)
	}

	id, byBackend, err := rep.PutAll(cidutil.Prefix(cid.Raw), []byte("replicated"))
	if err != nil {
		t.Fatal(err)
	}
	if len(byBackend) != 2 || !byBackend["a"].Equals(id) || !byBackend["b"].Equals(id) {
		t.Fatalf("unexpected per-backend CIDs %v", byBackend)
	}
}
