package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/multicodec"
	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/bundle"
)

func parseCIDs(args []string) ([]cid.Cid, error) {
	out := make([]cid.Cid, 0, len(args))
	for _, a := range args {
		id, err := cid.Decode(a)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", storage.ErrInvalidCID, a)
		}
		out = append(out, id)
	}
	return out, nil
}

func cmdPut(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("put", errOut)
	var common storeFlags
	common.add(fs)
	var codecName, hashName string
	var fromJSON bool
	fs.StringVar(&codecName, "codec", "cbor", "Block codec name")
	fs.StringVar(&hashName, "hash", "", "Multihash function (default sha2-256)")
	fs.BoolVar(&fromJSON, "json", false, "Input is DAG-JSON to encode with --codec")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}

	c, err := multicodec.LookupName(codecName)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	data, err := readInput(fs, in, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	store, closeFn, err := common.openStore(fs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()
	store.Hash = hashName

	var id cid.Cid
	if fromJSON {
		v, jerr := ipld.UnmarshalJSON(data)
		if jerr != nil {
			fmt.Fprintf(errOut, "invalid JSON: %v\n", jerr)
			return 1
		}
		id, err = store.PutWith(c.Code(), v)
	} else {
		id, err = store.PutBlock(c.Code(), data)
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id.String())
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("get", errOut)
	var common storeFlags
	common.add(fs)
	var cidStr, outPath string
	var asJSON bool
	fs.StringVar(&cidStr, "cid", "", "CID to fetch")
	fs.StringVar(&outPath, "out", "", "Output file (optional; default stdout)")
	fs.BoolVar(&asJSON, "json", false, "Decode the block and print DAG-JSON")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	if cidStr == "" {
		fmt.Fprintln(errOut, "missing --cid")
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: cbor42 get [store flags] --cid <cid> [--json] [--out <file>]")
		return 2
	}
	id, err := cid.Decode(cidStr)
	if err != nil {
		fmt.Fprintln(errOut, storage.ErrInvalidCID)
		return 1
	}

	store, closeFn, err := common.openStore(fs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	var b []byte
	if asJSON {
		v, gerr := store.Get(id)
		if gerr != nil {
			fmt.Fprintln(errOut, gerr)
			return 1
		}
		if b, err = ipld.MarshalJSON(v); err == nil {
			b = append(b, '\n')
		}
	} else {
		b, err = store.Block(id)
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	if outPath == "" {
		_, _ = out.Write(b)
		return 0
	}
	if err := os.WriteFile(outPath, b, 0o600); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	return 0
}

func cmdClosure(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("closure", errOut)
	var common storeFlags
	common.add(fs)
	var skipMissing bool
	fs.BoolVar(&skipMissing, "skip-missing", false, "Skip links to blocks the CAS does not hold")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: cbor42 closure [store flags] [--skip-missing] <cid> [<cid> ...]")
		return 2
	}
	roots, err := parseCIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	store, closeFn, err := common.openStore(fs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()
	store.SkipMissing = skipMissing

	ids, err := store.Closure(context.Background(), roots...)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id.String())
	}
	return 0
}

func cmdExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("export", errOut)
	var common storeFlags
	common.add(fs)
	var outPath, compression string
	var includeIndex bool
	fs.StringVar(&outPath, "out", "", "Bundle file to write")
	fs.StringVar(&compression, "compression", "none", "Bundle compression: none|zstd|lz4")
	fs.BoolVar(&includeIndex, "index", true, "Include index.json with root labels")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	if outPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: cbor42 export [store flags] --out <file> [--compression none|zstd|lz4] [--index] <cid> [<cid> ...]")
		return 2
	}
	comp, err := bundle.ParseCompression(compression)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	roots, err := parseCIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	store, closeFn, err := common.openStore(fs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	var buf bytes.Buffer
	err = store.Export(context.Background(), &buf, roots, bundle.ExportOptions{
		IncludeIndex: includeIndex,
		Compression:  comp,
	})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	return 0
}

func cmdImport(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("import", errOut)
	var common storeFlags
	common.add(fs)
	var ignoreUnknown bool
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Ignore unknown bundle entries")
	if code, ok := parse(fs, args); !ok {
		return code
	}
	if common.listBackends {
		printBackends(out)
		return 0
	}
	data, err := readInput(fs, in, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	store, closeFn, err := common.openStore(fs)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer closeFn()

	err = bundle.ImportWithOptions(bytes.NewReader(data), store.CAS, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}
