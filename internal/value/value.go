// Package value holds the typed representation of test-case inputs,
// expected outputs and submission results. Raw test-case text is parsed
// once into a Value and every later stage (argument binding, comparison,
// progress events) works on the variant instead of re-inspecting strings.
package value

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
	KindSequence
	KindMapping
)

// Entry is one key-value pair of a mapping. Insertion order is kept so
// that Encode round-trips the author's original layout.
type Entry struct {
	Key string
	Val Value
}

// Value is a closed tagged variant: Null | Bool | Number | Text |
// Sequence | Mapping. Tuples from literal input are represented as
// sequences.
type Value struct {
	kind    Kind
	boolean bool
	num     float64
	text    string
	seq     []Value
	mapping []Entry
}

func Null() Value              { return Value{kind: KindNull} }
func Bool(b bool) Value        { return Value{kind: KindBool, boolean: b} }
func Number(f float64) Value   { return Value{kind: KindNumber, num: f} }
func Text(s string) Value      { return Value{kind: KindText, text: s} }
func Seq(vs ...Value) Value    { return Value{kind: KindSequence, seq: vs} }
func Mapping(es []Entry) Value { return Value{kind: KindMapping, mapping: es} }

func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload. The second return is false for
// non-number values.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

func (v Value) Entries() []Entry {
	if v.kind != KindMapping {
		return nil
	}
	return v.mapping
}

// Wrap normalizes a runner result or expected output into the form the
// comparator consumes: scalars become a one-element sequence, sequences
// and mappings pass through untouched.
func Wrap(v Value) Value {
	switch v.kind {
	case KindSequence, KindMapping:
		return v
	default:
		return Seq(v)
	}
}

// NumericItems extracts the elements of v as floats. It returns false
// when v is not a sequence or any element is not a number.
func NumericItems(v Value) ([]float64, bool) {
	if v.kind != KindSequence {
		return nil, false
	}
	nums := make([]float64, len(v.seq))
	for i, item := range v.seq {
		f, ok := item.Float()
		if !ok {
			return nil, false
		}
		nums[i] = f
	}
	return nums, true
}

// Equal is deep structural equality. Numbers compare exactly; the
// comparator applies tolerance on its own.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.boolean == o.boolean
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindSequence:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.mapping) != len(o.mapping) {
			return false
		}
		byKey := make(map[string]Value, len(o.mapping))
		for _, e := range o.mapping {
			byKey[e.Key] = e.Val
		}
		for _, e := range v.mapping {
			other, ok := byKey[e.Key]
			if !ok || !e.Val.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Canonical renders a deterministic human-readable form used for exact
// comparison and for progress events. Mapping keys are sorted, integral
// numbers drop the decimal point.
func (v Value) Canonical() string {
	var b strings.Builder
	v.canonical(&b)
	return b.String()
}

func (v Value) canonical(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.boolean))
	case KindNumber:
		b.WriteString(formatNumber(v.num))
	case KindText:
		b.WriteString(v.text)
	case KindSequence:
		b.WriteByte('[')
		for i, item := range v.seq {
			if i > 0 {
				b.WriteString(", ")
			}
			item.canonical(b)
		}
		b.WriteByte(']')
	case KindMapping:
		keys := make([]string, 0, len(v.mapping))
		byKey := make(map[string]Value, len(v.mapping))
		for _, e := range v.mapping {
			keys = append(keys, e.Key)
			byKey[e.Key] = e.Val
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			byKey[k].canonical(b)
		}
		b.WriteByte('}')
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
