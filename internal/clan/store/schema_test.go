package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements()
	require.Len(t, stmts, 3)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS clans"))
	for _, stmt := range stmts {
		assert.NotContains(t, stmt, ";")
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}
