package ipfs

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casregistry"
)

var (
	flagBin  string
	flagRepo string
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "ipfs",
		Description: "Local Kubo repo via the ipfs CLI (offline)",
		Usage:       casregistry.UsageCLI | casregistry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", "ipfs", "Path to the ipfs binary (for --backend=ipfs)")
			fs.StringVar(&flagRepo, "ipfs-path", "", "IPFS_PATH of the repo; empty uses the environment (for --backend=ipfs)")
		},
		Open: func() (storage.CAS, func() error, error) {
			return New(options(flagBin, flagRepo)), nil, nil
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			if unknown := casregistry.UnknownKeys(cfg, "ipfs-bin", "ipfs-path"); len(unknown) > 0 {
				return nil, nil, fmt.Errorf("ipfs: unknown config keys: %s", strings.Join(unknown, ", "))
			}
			return New(options(cfg["ipfs-bin"], cfg["ipfs-path"])), nil, nil
		},
	})
}

func options(bin, repo string) Options {
	opts := Options{Bin: bin}
	if repo != "" {
		opts.Env = append(os.Environ(), "IPFS_PATH="+repo)
	}
	return opts
}
