package util

import (
	"os"
	"regexp"
)

// LookupFunc resolves a variable name. It mirrors os.LookupEnv.
type LookupFunc func(string) (string, bool)

var varRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandAny walks arbitrary structures (map[string]any, []any) and expands
// ${VAR} references in every string value using lookup. Bare $VAR is not
// expanded and unresolvable references are left as they were, so passwords
// containing dollar signs survive. A nil lookup uses the process environment.
func ExpandAny(in interface{}, lookup LookupFunc) interface{} {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var fn func(v interface{}) interface{}
	fn = func(v interface{}) interface{} {
		switch t := v.(type) {
		case map[string]interface{}:
			m := make(map[string]interface{}, len(t))
			for k, vv := range t {
				m[k] = fn(vv)
			}
			return m
		case []interface{}:
			arr := make([]interface{}, len(t))
			for i := range t {
				arr[i] = fn(t[i])
			}
			return arr
		case string:
			return expandString(t, lookup)
		default:
			return v
		}
	}
	return fn(in)
}

func expandString(s string, lookup LookupFunc) string {
	return varRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := varRef.FindStringSubmatch(ref)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return ref
	})
}
