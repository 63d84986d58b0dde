package shell

import (
	"os"
	"regexp"
	"strings"
)

var reEnvVar = regexp.MustCompile(`\${([^}{]+)}`)

// ReplaceEnvVars substitutes `${NAME}` and `${NAME:default}` with environment
// values. Unknown names without a default are left as is.
func ReplaceEnvVars(text string) string {
	return replaceVars(text, os.LookupEnv)
}

func replaceVars(text string, lookup func(string) (string, bool)) string {
	return reEnvVar.ReplaceAllStringFunc(text, func(match string) string {
		key, def, hasDef := strings.Cut(match[2:len(match)-1], ":")
		if key == "" {
			return match
		}

		if value, ok := lookup(key); ok {
			return value
		}
		if hasDef {
			return def
		}
		return match
	})
}
