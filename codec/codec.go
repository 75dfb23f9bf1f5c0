package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Separator delimits credential fields.
const Separator = "$"

const fieldCount = 4

var (
	// ErrMalformedFieldCount is returned when a credential does not split into exactly four fields.
	ErrMalformedFieldCount = errors.New("malformed credential: invalid number of fields")
	// ErrUnrecognizedPrefix is returned when the credential prefix does not match the codec.
	ErrUnrecognizedPrefix = errors.New("malformed credential: unrecognized prefix")
	// ErrCorruptCredential is returned when a credential field cannot be decoded.
	ErrCorruptCredential = errors.New("corrupt credential")
)

// Credential is the decoded form of a stored credential.
type Credential struct {
	Prefix string
	Params Params
	Key    []byte
	Salt   []byte
}

// Codec encodes credentials for a single format family.
type Codec struct {
	Prefix string
}

// New returns a codec for the given prefix. The prefix must not contain the separator.
func New(prefix string) (Codec, error) {
	if prefix == "" {
		return Codec{}, errors.New("codec prefix must not be empty")
	}
	if strings.Contains(prefix, Separator) {
		return Codec{}, fmt.Errorf("codec prefix %q must not contain %q", prefix, Separator)
	}
	return Codec{Prefix: prefix}, nil
}

// Encode renders params, key and salt as a credential string. It fails with
// ErrUnencodableName when a parameter name cannot be decoded back.
func (c Codec) Encode(params Params, key, salt []byte) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(c.Prefix) + 64 + base64.StdEncoding.EncodedLen(len(key)) + base64.StdEncoding.EncodedLen(len(salt)))
	b.WriteString(c.Prefix)
	b.WriteString(Separator)
	b.WriteString(params.String())
	b.WriteString(Separator)
	b.WriteString(base64.StdEncoding.EncodeToString(key))
	b.WriteString(Separator)
	b.WriteString(base64.StdEncoding.EncodeToString(salt))
	return b.String(), nil
}

// EncodeCredential is Encode for an already assembled Credential. The
// credential's own Prefix is ignored.
func (c Codec) EncodeCredential(cred Credential) (string, error) {
	return c.Encode(cred.Params, cred.Key, cred.Salt)
}

// Decode parses a credential produced by Encode.
//
// Structural problems are reported as ErrMalformedFieldCount or
// ErrUnrecognizedPrefix; field decoding failures wrap ErrCorruptCredential.
func (c Codec) Decode(stored string) (Credential, error) {
	parts := strings.Split(stored, Separator)
	if len(parts) != fieldCount {
		return Credential{}, ErrMalformedFieldCount
	}
	if parts[0] != c.Prefix {
		return Credential{}, ErrUnrecognizedPrefix
	}

	params, err := ParseParams(parts[1])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}

	key, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: invalid key encoding", ErrCorruptCredential)
	}

	salt, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return Credential{}, fmt.Errorf("%w: invalid salt encoding", ErrCorruptCredential)
	}

	return Credential{
		Prefix: parts[0],
		Params: params,
		Key:    key,
		Salt:   salt,
	}, nil
}

// Sniff returns the prefix of a well-formed credential without decoding its fields.
func Sniff(stored string) (string, bool) {
	if strings.Count(stored, Separator) != fieldCount-1 {
		return "", false
	}
	prefix, _, _ := strings.Cut(stored, Separator)
	return prefix, prefix != ""
}
