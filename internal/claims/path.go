// Package claims extracts values from decoded JSON claim documents with JMESPath.
package claims

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// Path is a validated JMESPath expression selecting a single string claim.
// The zero Path extracts nothing.
type Path struct {
	expr string
}

// Compile validates expr. An empty expression yields the zero Path.
func Compile(expr string) (Path, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Path{}, nil
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return Path{}, fmt.Errorf("compile claim path %q: %w", expr, err)
	}
	return Path{expr: expr}, nil
}

// MustCompile is like Compile but panics on error. Intended for constants.
func MustCompile(expr string) Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string { return p.expr }

// Extract evaluates the path against doc, which must be the result of
// decoding JSON into any (maps, slices, scalars). A string result is returned
// as is; for a list the first string element is used. Anything else yields "".
func (p Path) Extract(doc any) string {
	if p.expr == "" || doc == nil {
		return ""
	}
	res, err := jmespath.Search(p.expr, doc)
	if err != nil {
		return ""
	}
	switch v := res.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
