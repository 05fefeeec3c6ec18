package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/pflag"

	"xdao.co/cbor42/dag"
	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casconfig"
	"xdao.co/cbor42/storage/casregistry"

	_ "xdao.co/cbor42/storage/grpccas"
	_ "xdao.co/cbor42/storage/ipfs"
	_ "xdao.co/cbor42/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "encode":
		return cmdEncode(args[1:], in, out, errOut)
	case "decode":
		return cmdDecode(args[1:], in, out, errOut)
	case "diag":
		return cmdDiag(args[1:], in, out, errOut)
	case "cid":
		return cmdCID(args[1:], in, out, errOut)
	case "refs":
		return cmdRefs(args[1:], in, out, errOut)
	case "codecs":
		return cmdCodecs(args[1:], out, errOut)
	case "put":
		return cmdPut(args[1:], in, out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "closure":
		return cmdClosure(args[1:], out, errOut)
	case "export":
		return cmdExport(args[1:], out, errOut)
	case "import":
		return cmdImport(args[1:], in, out, errOut)
	case "list-backends":
		printBackends(out)
		return 0
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "cbor42: canonical CBOR blocks with CID links")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cbor42 encode [--hex] [<file.json>]")
	fmt.Fprintln(w, "  cbor42 decode [--hex] [<file>]")
	fmt.Fprintln(w, "  cbor42 diag [--hex] [<file>]")
	fmt.Fprintln(w, "  cbor42 cid [--codec cbor|raw] [--hash <name>] [--hex] [<file>]")
	fmt.Fprintln(w, "  cbor42 refs [--hex] [<file>]")
	fmt.Fprintln(w, "  cbor42 codecs")
	fmt.Fprintln(w, "  cbor42 put [store flags] [--codec cbor|raw] [--json] [--hash <name>] [<file>]")
	fmt.Fprintln(w, "  cbor42 get [store flags] --cid <cid> [--json] [--out <file>]")
	fmt.Fprintln(w, "  cbor42 closure [store flags] [--skip-missing] <cid> [<cid> ...]")
	fmt.Fprintln(w, "  cbor42 export [store flags] --out <file> [--compression none|zstd|lz4] [--index] <cid> [<cid> ...]")
	fmt.Fprintln(w, "  cbor42 import [store flags] [--ignore-unknown] [<file>]")
	fmt.Fprintln(w, "  cbor42 list-backends")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Store flags:")
	fmt.Fprintln(w, "  --backend <name>     CAS backend (default localfs); see list-backends")
	fmt.Fprintln(w, "  --config <file>      multi-backend config (YAML or JSONC); --backend picks the preferred one")
	fmt.Fprintln(w, "  --localfs-dir, --ipfs-path, --grpc-target, ...  backend flags")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - input is read from <file>, or stdin when it is omitted or \"-\"")
	fmt.Fprintln(w, "  - JSON input and output use the DAG-JSON conventions for bytes and links")
	fmt.Fprintln(w, "  - encode writes canonical bytes to stdout (no trailing newline)")
}

type storeFlags struct {
	backend      string
	config       string
	listBackends bool

	// backendChanged records an explicit --backend, which selects the
	// preferred backend of a config file.
	backendChanged bool
}

func (c *storeFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&c.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&c.config, "config", "", "Multi-backend config file (YAML or JSONC)")
	fs.BoolVar(&c.listBackends, "list-backends", false, "List supported backends and exit")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
}

func (c *storeFlags) openCAS() (storage.CAS, func() error, error) {
	if c.config == "" {
		return casregistry.Open(c.backend, casregistry.UsageCLI)
	}
	cfg, err := casconfig.LoadFile(c.config)
	if err != nil {
		return nil, nil, err
	}
	preferred := ""
	if c.backendChanged {
		preferred = c.backend
	}
	return cfg.Open(casregistry.UsageCLI, preferred)
}

func (c *storeFlags) openStore(fs *pflag.FlagSet) (dag.Store, func() error, error) {
	c.backendChanged = fs.Changed("backend")
	cas, closeFn, err := c.openCAS()
	if err != nil {
		return dag.Store{}, nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return dag.Store{CAS: cas}, closeFn, nil
}

func printBackends(w io.Writer) {
	for _, b := range casregistry.List(casregistry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func newFlagSet(name string, errOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// parse returns the exit code to use when parsing stops the command.
func parse(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// readInput reads the single optional positional argument as a file, or
// in when it is absent or "-".
func readInput(fs *pflag.FlagSet, in io.Reader, hexMode bool) ([]byte, error) {
	var data []byte
	var err error
	switch {
	case fs.NArg() > 1:
		return nil, fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	case fs.NArg() == 1 && fs.Arg(0) != "-":
		data, err = os.ReadFile(fs.Arg(0))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fs.Arg(0), err)
		}
	default:
		data, err = io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	if !hexMode {
		return data, nil
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(data))
	if cleaned == "" {
		return nil, errors.New("empty input after stripping whitespace from hex")
	}
	b, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return b, nil
}
