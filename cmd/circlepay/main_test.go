package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlenaMolokova/circlepay/internal/schema"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("STORE_BACKEND", "xlsx")
	t.Setenv("JWT_SECRET", "cli-secret")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--env-file", "missing.env", "--subject", "maria"})
	require.NoError(t, root.Execute())

	raw := strings.TrimSpace(out.String())
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("cli-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "maria", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestTokenCommandWithoutSecret(t *testing.T) {
	t.Setenv("STORE_BACKEND", "xlsx")
	t.Setenv("JWT_SECRET", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--env-file", "missing.env", "--subject", "maria"})
	assert.EqualError(t, root.Execute(), "JWT_SECRET is not set")
}

func TestPrintMapping(t *testing.T) {
	headers := []string{"ID", "Amount", "Method"}
	m := schema.Mapping{
		Columns:    map[schema.Role]int{schema.RoleID: 0, schema.RoleAmount: 1},
		Confidence: 50,
	}

	var out bytes.Buffer
	printMapping(&out, headers, m)

	text := out.String()
	assert.Regexp(t, `amount\s+2\s+Amount`, text)
	assert.Regexp(t, `id\s+1\s+ID`, text)
	assert.Regexp(t, `(?m)^method\s+-`, text)
	assert.Contains(t, text, "confidence: 50%")
}
