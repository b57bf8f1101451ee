package utils

import (
	"fmt"
	"strings"
)

// ByteCountSI formats a byte count in SI units (kB, MB, GB, etc.)
// For example: 1024 -> "1.0 kB"
func ByteCountSI(b int) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}

// NormalizePhoneNumber strips every non-digit character from a phone number.
// For example: "+55 (11) 98888-7777" -> "5511988887777"
func NormalizePhoneNumber(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// JIDToNumber extracts the bare number from a WhatsApp JID.
// For example: "5511988887777@s.whatsapp.net" -> "5511988887777"
func JIDToNumber(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// IsGroupJID reports whether a JID addresses a WhatsApp group
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
