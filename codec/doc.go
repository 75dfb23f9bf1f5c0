// Package codec encodes and decodes goHash credentials.
//
// # Output format
//
// A credential is a single line of four `$`-separated fields:
//
//	<prefix>$<params>$<base64(key)>$<base64(salt)>
//
// The prefix names the format family (the KDF that produced the key). Params
// is a compact JSON object with sorted keys and integer values only, e.g.
// {"N":32768,"p":1,"r":8}. Key and salt use standard padded base64, whose
// alphabet never contains `$`.
//
// # Architecture boundaries
//
// This package owns the text format and the [Params] value type. It does not
// know how a key is derived and never touches randomness.
//
// # What this package must NOT do
//
//   - Accept legacy or alternative layouts. One format, fixed.
//   - Import goHash or any sibling package other than the standard library.
package codec
