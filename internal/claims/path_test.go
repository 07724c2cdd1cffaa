package claims

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestPath_Extract(t *testing.T) {
	doc := decode(t, `{"role":"admin","app":{"roles":["cashier","customer"]},"n":3}`)

	tests := []struct {
		expr string
		want string
	}{
		{"role", "admin"},
		{"app.roles", "cashier"},
		{"app.roles[1]", "customer"},
		{"n", ""},
		{"missing.path", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Extract(doc))
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("role[")
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("role[") })
}

func TestPath_NilDocument(t *testing.T) {
	assert.Equal(t, "", MustCompile("role").Extract(nil))
}
