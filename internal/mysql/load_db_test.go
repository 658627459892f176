package mysql

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFiles(t *testing.T) {
	files, err := fs.Glob(schemaFS, "schema/*.sql")
	require.NoError(t, err)
	assert.Len(t, files, 5)

	for _, file := range files {
		raw, err := schemaFS.ReadFile(file)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(string(raw)), "CREATE TABLE IF NOT EXISTS"), file)
	}

	raw, err := schemaFS.ReadFile("schema/attendance.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "open_flag")
	assert.Contains(t, string(raw), "uq_attendance_open")
}
