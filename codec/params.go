package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrUnencodableName is returned for parameter names that would not survive
// an Encode and Decode round trip.
var ErrUnencodableName = errors.New("unencodable parameter name")

// CheckName reports whether name can be carried in a credential unchanged.
// Names must be valid UTF-8 and must not contain the field separator.
func CheckName(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrUnencodableName, name)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrUnencodableName, name, Separator)
	}
	return nil
}

// Params is an immutable, key-sorted set of KDF cost parameters.
//
// The zero value is an empty parameter set.
type Params struct {
	keys   []string
	values []int64
}

// NewParams copies m into a Params value.
func NewParams(m map[string]int64) Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]int64, len(keys))
	for i, k := range keys {
		values[i] = m[k]
	}
	return Params{keys: keys, values: values}
}

// Get returns the value stored under key.
func (p Params) Get(key string) (int64, bool) {
	i := sort.SearchStrings(p.keys, key)
	if i < len(p.keys) && p.keys[i] == key {
		return p.values[i], true
	}
	return 0, false
}

// Len reports the number of parameters.
func (p Params) Len() int { return len(p.keys) }

// Keys returns the parameter names in canonical order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Map returns a mutable copy of the parameters.
func (p Params) Map() map[string]int64 {
	out := make(map[string]int64, len(p.keys))
	for i, k := range p.keys {
		out[k] = p.values[i]
	}
	return out
}

// Equal reports whether both sets hold the same keys with the same values.
func (p Params) Equal(other Params) bool {
	if len(p.keys) != len(other.keys) {
		return false
	}
	for i := range p.keys {
		if p.keys[i] != other.keys[i] || p.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// Validate runs CheckName on every parameter name.
func (p Params) Validate() error {
	for _, k := range p.keys {
		if err := CheckName(k); err != nil {
			return err
		}
	}
	return nil
}

// String returns the canonical text form used inside credentials. The result
// only parses back to p when p.Validate succeeds.
func (p Params) String() string {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		// json.Marshal of a string cannot fail.
		name, _ := json.Marshal(k)
		b.Write(name)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(p.values[i], 10))
	}
	b.WriteByte('}')
	return b.String()
}

// ParseParams parses the canonical text form produced by [Params.String].
//
// Key order in the input is irrelevant. Values must be JSON integers that fit
// in an int64; fractions, exponents and trailing data are rejected.
func ParseParams(text string) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw map[string]json.Number
	if err := dec.Decode(&raw); err != nil {
		return Params{}, fmt.Errorf("parse params: %w", err)
	}
	if raw == nil {
		return Params{}, errors.New("parse params: not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Params{}, errors.New("parse params: trailing data")
	}

	m := make(map[string]int64, len(raw))
	for k, n := range raw {
		v, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return Params{}, fmt.Errorf("parse params: %q is not an integer", k)
		}
		m[k] = v
	}
	return NewParams(m), nil
}
