package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapql/pkg/dialects/postgres"
)

func TestPostgres(t *testing.T) {
	d := postgres.Postgres
	assert.Equal(t, "$2", d.FormatPlaceholder(2))
	assert.Equal(t, "true", d.FormatBoolean(true))
	assert.Equal(t, "public", d.Config().DefaultSchema)
	assert.True(t, d.IsReservedWord("limit"))
	assert.True(t, d.IsReservedWord("ORDER"))
}
