package asset

import "strings"

// ExternalPrefix is the reserved upstream-reference form that reads a named
// channel of the external data feed instead of another asset's output.
const ExternalPrefix = "external:"

// IsExternalRef reports whether ref names an external feed channel.
func IsExternalRef(ref string) bool {
	return strings.HasPrefix(ref, ExternalPrefix)
}

// ExternalChannel extracts the channel name from an external reference.
// The second return is false when ref is not external or names no channel.
func ExternalChannel(ref string) (string, bool) {
	if !IsExternalRef(ref) {
		return "", false
	}
	ch := ref[len(ExternalPrefix):]
	if ch == "" {
		return "", false
	}
	return ch, true
}

// ExternalRef builds the reserved reference form for a feed channel.
func ExternalRef(channel string) string {
	return ExternalPrefix + channel
}
