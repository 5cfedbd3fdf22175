// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package store

import (
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/pkg/errutil"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		require.True(t, pattern.MatchString(name), "file %s should match NNNNNN_name.(up|down).sql", name)
		if base, ok := strings.CutSuffix(name, ".up.sql"); ok {
			ups[base] = true
		} else if base, ok := strings.CutSuffix(name, ".down.sql"); ok {
			downs[base] = true
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
	assert.True(t, ups["000001_create_accounts"])
}

func TestMigrationsFS_AccountsConstraints(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/000001_create_accounts.up.sql")
	require.NoError(t, err)

	// The repository maps these names to conflict fields.
	assert.Contains(t, string(sql), "accounts_email_key")
	assert.Contains(t, string(sql), "accounts_national_id_key")
	assert.Contains(t, string(sql), "accounts_reset_pair")
}

func TestEmbeddedVersions(t *testing.T) {
	versions, err := embeddedVersions(migrationsFS)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)

	fsys := fstest.MapFS{
		"migrations/000010_b.up.sql":   {},
		"migrations/000002_a.up.sql":   {},
		"migrations/000002_a.down.sql": {},
		"migrations/README.md":         {},
	}
	versions, err = embeddedVersions(fsys)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 10}, versions)

	_, err = embeddedVersions(fstest.MapFS{"migrations/bad.up.sql": {}})
	errutil.AssertErrorCode(t, err, "MIGRATION_LIST_FAILED")
}
