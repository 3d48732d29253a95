package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsInitialSchema(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.up.sql", names[0])

	body, err := fs.ReadFile(FS, names[0])
	require.NoError(t, err)
	for _, want := range []string{
		"users_email_key",
		"aspects_name_lower_key",
		"ratings_aspect_id_fkey",
		"ON DELETE RESTRICT",
	} {
		assert.True(t, strings.Contains(string(body), want), "schema is missing %s", want)
	}
}
