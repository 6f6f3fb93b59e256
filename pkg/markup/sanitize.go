package markup

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	itemPolicyOnce sync.Once
	itemPolicy     *bluemonday.Policy
)

// Sanitize strips everything but inline formatting from caller supplied
// row markup.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(itemSanitizer().Sanitize(trimmed))
}

func itemSanitizer() *bluemonday.Policy {
	itemPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		inline := []string{"span", "strong", "em", "b", "i", "small", "mark", "code", "br"}
		policy.AllowElements(inline...)
		policy.AllowAttrs("class", "title").OnElements(inline...)
		policy.AllowAttrs("data-field").OnElements("span")
		itemPolicy = policy
	})
	return itemPolicy
}
