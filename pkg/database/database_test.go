package database

import (
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	for _, version := range []uint{first, next} {
		up, _, err := src.ReadUp(version)
		require.NoError(t, err)
		up.Close()
		down, _, err := src.ReadDown(version)
		require.NoError(t, err)
		down.Close()
	}
}

func TestMigrations_ImageSourceConstraint(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000002_create_product_images.up.sql")
	require.NoError(t, err)
	sql := string(data)
	assert.True(t, strings.Contains(sql, "ON DELETE CASCADE"))
	assert.True(t, strings.Contains(sql, "stored_name  VARCHAR(255) UNIQUE"))
	assert.True(t, strings.Contains(sql, "product_images_one_source"))
}
