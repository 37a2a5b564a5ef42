package service

import (
	"strings"
)

// GenerateSlug 由名称派生 slug：转小写，非 [a-z0-9] 的连续字符折叠为一个 "-"，去掉首尾 "-"
func GenerateSlug(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	pendingDash := false
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
