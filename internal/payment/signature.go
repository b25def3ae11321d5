package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CheckMacField is the parameter carrying the signature; it is excluded
// from its own computation.
const CheckMacField = "CheckMacValue"

// The gateway verifies against a .NET UrlEncode dialect, so the standard
// escaping has to be rewritten before hashing. Replacements run on the
// lowercased encoded string; url.QueryEscape already emits "+" for space
// and leaves "-", "_", "." unescaped.
var encodeDialect = strings.NewReplacer(
	"%20", "+",
	"%2d", "-",
	"%5f", "_",
	"%2e", ".",
	"%21", "!",
	"%2a", "*",
	"%28", "(",
	"%29", ")",
)

// GenerateCheckMac computes the signature over all parameters except
// CheckMacValue itself. The transform must stay bit-exact with the
// gateway's verifier: key sort, secret wrapping, encoding dialect, case and
// digest all matter.
func GenerateCheckMac(params map[string]string, hashKey, hashIV string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == CheckMacField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(hashKey)
	for _, k := range keys {
		b.WriteString("&")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(params[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(hashIV)

	encoded := strings.ToLower(url.QueryEscape(b.String()))
	encoded = encodeDialect.Replace(encoded)

	sum := sha256.Sum256([]byte(encoded))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// VerifyCheckMac recomputes the signature from the received parameters and
// compares it against the CheckMacValue they carried.
func VerifyCheckMac(params map[string]string, hashKey, hashIV string) bool {
	received, ok := params[CheckMacField]
	if !ok || received == "" {
		return false
	}
	return GenerateCheckMac(params, hashKey, hashIV) == received
}
