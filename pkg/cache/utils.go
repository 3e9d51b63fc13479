package cache

import (
	"fmt"
	"path"
	"strings"
)

// GenerateKey joins a prefix and parameters with ':'.
func GenerateKey(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}

// BuildPattern returns a glob matching every key under prefix.
func BuildPattern(prefix string) string {
	return prefix + "*"
}

// matchPattern applies Redis-style glob matching. '/' has no special meaning
// in keys, so it is swapped out before path.Match sees it.
func matchPattern(pattern, key string) bool {
	ok, err := path.Match(strings.ReplaceAll(pattern, "/", "\x00"), strings.ReplaceAll(key, "/", "\x00"))
	return err == nil && ok
}
