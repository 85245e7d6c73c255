package redis

import "strings"

const defaultPrefix = "quiz"

func key(prefix string, parts ...string) string {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
