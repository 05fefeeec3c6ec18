package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/cbor42/cbor42"
	"xdao.co/cbor42/cidutil"
	"xdao.co/cbor42/ipld"
	"xdao.co/cbor42/multicodec"
)

func writeBytes(out io.Writer, b []byte, hexMode bool) error {
	if hexMode {
		_, err := fmt.Fprintln(out, hex.EncodeToString(b))
		return err
	}
	_, err := out.Write(b)
	return err
}

func cmdEncode(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("encode", errOut)
	var hexOut bool
	fs.BoolVar(&hexOut, "hex", false, "Write hex instead of binary")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	data, err := readInput(fs, in, false)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	v, err := ipld.UnmarshalJSON(data)
	if err != nil {
		fmt.Fprintf(errOut, "invalid JSON: %v\n", err)
		return 1
	}
	b, err := cbor42.Encode(v)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	if err := writeBytes(out, b, hexOut); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdDecode(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("decode", errOut)
	var hexIn bool
	var maxDepth int
	fs.BoolVar(&hexIn, "hex", false, "Read hex instead of binary")
	fs.IntVar(&maxDepth, "max-depth", 0, "Maximum container nesting; 0 is unlimited")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	data, err := readInput(fs, in, hexIn)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	v, err := cbor42.Codec{MaxDepth: maxDepth}.Decode(data)
	if err != nil {
		fmt.Fprintf(errOut, "decode: %v\n", err)
		return 1
	}
	j, err := ipld.MarshalJSON(v)
	if err != nil {
		fmt.Fprintf(errOut, "decode: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, string(j))
	return 0
}

// cmdDiag prints one line of diagnostic notation per item of a CBOR
// sequence.
func cmdDiag(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("diag", errOut)
	var hexIn, strict bool
	fs.BoolVar(&hexIn, "hex", false, "Read hex instead of binary")
	fs.BoolVar(&strict, "strict", false, "Also require every item to decode as a cbor42 value")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	data, err := readInput(fs, in, hexIn)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if len(data) == 0 {
		fmt.Fprintln(errOut, "empty input: expected CBOR data")
		return 1
	}

	remaining := data
	for len(remaining) > 0 {
		offset := len(data) - len(remaining)
		notation, rest, err := cbor.DiagnoseFirst(remaining)
		if err != nil {
			fmt.Fprintf(errOut, "diagnose CBOR at byte %d: %v\n", offset, err)
			return 1
		}
		if strict {
			if _, err := cbor42.Decode(remaining[:len(remaining)-len(rest)]); err != nil {
				fmt.Fprintf(errOut, "item at byte %d: %v\n", offset, err)
				return 1
			}
		}
		_, _ = fmt.Fprintln(out, notation)
		remaining = rest
	}
	return 0
}

func cmdCID(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("cid", errOut)
	var codecName, hashName string
	var hexIn bool
	fs.StringVar(&codecName, "codec", "cbor", "Block codec name")
	fs.StringVar(&hashName, "hash", "", "Multihash function (default sha2-256)")
	fs.BoolVar(&hexIn, "hex", false, "Read hex instead of binary")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	c, err := multicodec.LookupName(codecName)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	p, err := cidutil.PrefixWithHash(c.Code(), hashName)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	data, err := readInput(fs, in, hexIn)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if _, err := c.Decode(data); err != nil {
		fmt.Fprintf(errOut, "invalid %s block: %v\n", c.Name(), err)
		return 1
	}
	id, err := cidutil.Sum(p, data)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id.String())
	return 0
}

func cmdRefs(args []string, in io.Reader, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("refs", errOut)
	var hexIn bool
	fs.BoolVar(&hexIn, "hex", false, "Read hex instead of binary")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	data, err := readInput(fs, in, hexIn)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	links, err := cbor42.Codec{}.Links(data)
	if err != nil {
		fmt.Fprintf(errOut, "refs: %v\n", err)
		return 1
	}
	for _, l := range links {
		_, _ = fmt.Fprintln(out, l.String())
	}
	return 0
}

func cmdCodecs(args []string, out io.Writer, errOut io.Writer) int {
	fs := newFlagSet("codecs", errOut)
	if code, ok := parse(fs, args); !ok {
		return code
	}
	for _, c := range multicodec.List() {
		_, _ = fmt.Fprintf(out, "0x%02x\t%s\n", c.Code(), c.Name())
	}
	return 0
}
