package ipld

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ipfs/go-cid"
)

// MarshalJSON renders v as deterministic DAG-JSON: map keys sorted, links as
// {"/":"<cid>"} and bytes as {"/":{"bytes":"<base64>"}}. Floats always carry a
// decimal point or exponent so they read back as floats. Non-finite floats
// have no JSON form and fail.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(t)))
	case Integer:
		buf.WriteString(t.String())
	case Float:
		f := float64(t)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("ipld: %v has no JSON representation", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case Bytes:
		buf.WriteString(`{"/":{"bytes":"`)
		buf.WriteString(base64.RawStdEncoding.EncodeToString(t))
		buf.WriteString(`"}}`)
	case String:
		writeJSONString(buf, string(t))
	case List:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range t.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if err := writeJSON(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case Link:
		if !t.Cid.Defined() {
			return errors.New("ipld: undefined link")
		}
		buf.WriteString(`{"/":"`)
		buf.WriteString(t.Cid.String())
		buf.WriteString(`"}`)
	default:
		return fmt.Errorf("ipld: unsupported value %T", v)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	// Encoder terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
}

// UnmarshalJSON parses DAG-JSON produced by MarshalJSON (or any JSON using
// the same link and bytes conventions). Integers keep full precision.
func UnmarshalJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("ipld: parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("ipld: trailing data after json value")
	}
	return fromJSON(raw)
}

func fromJSON(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		s := t.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("ipld: float %s: %w", s, err)
			}
			return Float(f), nil
		}
		b, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("ipld: invalid integer %s", s)
		}
		return BigInt(b), nil
	case string:
		return String(t), nil
	case []any:
		out := make(List, 0, len(t))
		for _, e := range t {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case map[string]any:
		if slash, ok := t["/"]; ok && len(t) == 1 {
			return fromSlash(slash)
		}
		out := make(Map, len(t))
		for k, e := range t {
			v, err := fromJSON(e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("ipld: unexpected json type %T", raw)
}

func fromSlash(slash any) (Value, error) {
	switch s := slash.(type) {
	case string:
		c, err := cid.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("ipld: link %q: %w", s, err)
		}
		return Link{Cid: c}, nil
	case map[string]any:
		enc, ok := s["bytes"].(string)
		if !ok || len(s) != 1 {
			break
		}
		b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(enc, "="))
		if err != nil {
			return nil, fmt.Errorf("ipld: bytes: %w", err)
		}
		return Bytes(b), nil
	}
	return nil, errors.New(`ipld: malformed "/" object`)
}
