package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tsvload/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	assert.Equal(t, []string{"mssql", "postgres", "sqlite"}, storage.ListKinds())
}
