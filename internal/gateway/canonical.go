package gateway

import (
	"net/url"
	"sort"
	"strings"
)

// Field names both gateways reserve for the signature itself. They are
// stripped from the field set before canonicalization, on the signing and
// the verifying side alike.
const (
	vnpSecureHashField     = "vnp_SecureHash"
	vnpSecureHashTypeField = "vnp_SecureHashType"
)

// Canonicalize serializes a field set into the byte string that gets signed.
//
// Field names are sorted by byte order and joined as name=value pairs with
// "&". Values are form-encoded (space as "+", reserved and non-ASCII bytes
// percent-encoded). The exact same function runs when building an outbound
// request and when verifying an inbound one; any asymmetry between the two
// sides makes every signature invalid, so there is only one implementation.
func Canonicalize(fields map[string]string) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fields[k]))
	}

	return []byte(b.String())
}

// stripSignatureFields removes the signature field and its type indicator
// from the set, returning a copy. The caller's map is left untouched.
func stripSignatureFields(fields map[string]string, names ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, name := range names {
		delete(out, name)
	}
	return out
}
