package grpccas

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casregistry"
)

var (
	flagTarget      string
	flagDialTimeout time.Duration
	flagTimeout     time.Duration
	flagMaxMsgBytes int
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Name:        "grpc",
		Description: "gRPC CAS client (talks to a CAS gRPC daemon, e.g. cbor42-casd)",
		Usage:       casregistry.UsageCLI,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.StringVar(&flagTarget, "grpc-target", "", "gRPC target host:port (for --backend=grpc)")
			fs.DurationVar(&flagDialTimeout, "grpc-dial-timeout", 5*time.Second, "Dial timeout (for --backend=grpc)")
			fs.DurationVar(&flagTimeout, "grpc-timeout", 0, "Per-RPC timeout (for --backend=grpc)")
			fs.IntVar(&flagMaxMsgBytes, "grpc-max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
		},
		Open: func() (storage.CAS, func() error, error) {
			return open(flagTarget, flagDialTimeout, flagTimeout, flagMaxMsgBytes)
		},
		OpenConfig: func(cfg map[string]string) (storage.CAS, func() error, error) {
			if unknown := casregistry.UnknownKeys(cfg, "grpc-target", "grpc-dial-timeout", "grpc-timeout", "grpc-max-msg-bytes"); len(unknown) > 0 {
				return nil, nil, fmt.Errorf("grpc: unknown config keys: %s", strings.Join(unknown, ", "))
			}
			dialTimeout, err := durationKey(cfg, "grpc-dial-timeout", 5*time.Second)
			if err != nil {
				return nil, nil, err
			}
			timeout, err := durationKey(cfg, "grpc-timeout", 0)
			if err != nil {
				return nil, nil, err
			}
			maxMsg := 0
			if s := cfg["grpc-max-msg-bytes"]; s != "" {
				if maxMsg, err = strconv.Atoi(s); err != nil {
					return nil, nil, fmt.Errorf("grpc: invalid grpc-max-msg-bytes %q: %w", s, err)
				}
			}
			return open(cfg["grpc-target"], dialTimeout, timeout, maxMsg)
		},
	})
}

func open(target string, dialTimeout, timeout time.Duration, maxMsgBytes int) (storage.CAS, func() error, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, nil, fmt.Errorf("missing --grpc-target")
	}
	client, err := Dial(target, DialOptions{Timeout: dialTimeout, MaxMsgBytes: maxMsgBytes})
	if err != nil {
		return nil, nil, err
	}
	client.Timeout = timeout
	return client, client.Close, nil
}

func durationKey(cfg map[string]string, key string, def time.Duration) (time.Duration, error) {
	s, ok := cfg[key]
	if !ok || s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("grpc: invalid %s %q: %w", key, s, err)
	}
	return d, nil
}
