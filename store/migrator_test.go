package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSQL(t *testing.T) {
	script := `-- preference
CREATE TABLE t (
  a TEXT DEFAULT 'x;y', -- trailing comment; with semicolon
  b INTEGER
);

CREATE UNIQUE INDEX idx_t_a ON t (a);
INSERT INTO t (a) VALUES ('it''s')`

	statements := splitSQL(script)
	require.Len(t, statements, 3)
	require.Contains(t, statements[0], "'x;y'")
	require.NotContains(t, statements[0], "trailing comment")
	require.Equal(t, "CREATE UNIQUE INDEX idx_t_a ON t (a)", statements[1])
	require.Equal(t, "INSERT INTO t (a) VALUES ('it''s')", statements[2])
}

func TestEmbeddedSchemas(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite", "mysql"} {
		bytes, err := migrationFS.ReadFile("migration/" + driver + "/" + LatestSchemaFileName)
		require.NoError(t, err, driver)
		require.Contains(t, string(bytes), "preference")
		require.NotContains(t, string(bytes), "location_area", driver)
	}
}

func TestMySQLSchemaComparesUserIDExactly(t *testing.T) {
	bytes, err := migrationFS.ReadFile("migration/mysql/" + LatestSchemaFileName)
	require.NoError(t, err)
	require.Contains(t, string(bytes), "`user_id` VARCHAR(36) CHARACTER SET ascii COLLATE ascii_bin NOT NULL")
}
