package localfs

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casregistry"
)

var (
	flagLocalDir string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "localfs",
		Description: "Local filesystem CAS (directory)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS CAS directory (for --backend=localfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagLocalDir)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			if unknown := casregistry.UnknownKeys(cfg, "localfs-dir"); len(unknown) > 0 {
				return nil, nil, fmt.Errorf("localfs: unknown config keys: %s", strings.Join(unknown, ", "))
			}
			return open(cfg["localfs-dir"])
		},
	})
}

func open(dir string) (storage.CAS, func() error, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("missing --localfs-dir")
	}
	cas, err := New(dir)
	if err != nil {
		return nil, nil, err
	}
	return cas, nil, nil
}
