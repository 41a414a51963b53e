package simulator

import "strings"

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// MaskedName builds a display label like "User****k3x9": a fixed masked prefix followed by
// n random base-36 characters
func MaskedName(src Source, prefix string, n int) string {
	var b strings.Builder
	b.Grow(len(prefix) + n)
	b.WriteString(prefix)
	for range n {
		b.WriteByte(base36[src.IntN(len(base36))])
	}
	return b.String()
}
