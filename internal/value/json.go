package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalJSON emits the natural JSON form of the value. This is both the
// wire encoding handed to the runner harness and the stored test-case
// encoding: Parse on the output reproduces an equal value.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.boolean)
	case KindNumber:
		return json.Marshal(v.num)
	case KindText:
		return json.Marshal(v.text)
	case KindSequence:
		if v.seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.seq)
	case KindMapping:
		var b bytes.Buffer
		b.WriteByte('{')
		for i, e := range v.mapping {
			if i > 0 {
				b.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return nil, err
			}
			b.Write(key)
			b.WriteByte(':')
			val, err := json.Marshal(e.Val)
			if err != nil {
				return nil, err
			}
			b.Write(val)
		}
		b.WriteByte('}')
		return b.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// Encode returns the re-parseable textual form of the value.
func (v Value) Encode() string {
	b, err := json.Marshal(v)
	if err != nil {
		// only reachable for NaN/Inf numbers, which the parser never produces
		return v.Canonical()
	}
	return string(b)
}

// FromJSON converts a decoded encoding/json value (as produced with
// UseNumber) into a Value. Object key order is not guaranteed by the
// decoder, so mappings are ordered by key.
func FromJSON(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q out of range: %w", t.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(t), nil
	case string:
		return Text(t), nil
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromJSON(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Seq(items...), nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(t))
		for _, k := range keys {
			v, err := FromJSON(t[k])
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Val: v})
		}
		return Mapping(entries), nil
	}
	return Value{}, fmt.Errorf("unsupported json type %T", raw)
}

// DecodeJSON parses strict JSON text into a Value.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, err
	}
	// reject trailing garbage like "5 extra"
	if dec.More() {
		return Value{}, fmt.Errorf("trailing data after json value")
	}
	return FromJSON(raw)
}
