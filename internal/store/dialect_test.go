package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantName   string
		wantDriver string
		wantPath   string
		wantURL    string
	}{
		{
			name:       "relative sqlite",
			raw:        "sqlite://./data/cleia.db",
			wantName:   "sqlite",
			wantDriver: "sqlite",
			wantPath:   "./data/cleia.db",
			wantURL:    "sqlite://./data/cleia.db",
		},
		{
			name:       "absolute sqlite with query",
			raw:        "sqlite:///var/lib/cleia.db?cache=shared",
			wantName:   "sqlite",
			wantDriver: "sqlite",
			wantPath:   "/var/lib/cleia.db",
			wantURL:    "sqlite:///var/lib/cleia.db",
		},
		{
			name:       "postgres",
			raw:        "postgres://cleia:secret@db:5432/cleia?sslmode=disable",
			wantName:   "postgres",
			wantDriver: "pgx",
			wantURL:    "pgx5://cleia:secret@db:5432/cleia?sslmode=disable",
		},
		{
			name:       "postgresql scheme",
			raw:        "postgresql://localhost/cleia",
			wantName:   "postgres",
			wantDriver: "pgx",
			wantURL:    "pgx5://localhost/cleia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDatabaseURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name)
			assert.Equal(t, tt.wantDriver, d.Driver)
			assert.Equal(t, tt.wantPath, d.Path)
			assert.Equal(t, tt.wantURL, d.MigrateURL)
		})
	}
}

func TestParseDatabaseURLRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "mysql://root@localhost/cleia_db", "sqlite://"} {
		_, err := ParseDatabaseURL(raw)
		assert.Error(t, err, raw)
	}
}

func TestRebind(t *testing.T) {
	query := `SELECT a FROM t WHERE x = ? AND y = ?`

	sqlite := Dialect{Name: "sqlite"}
	assert.Equal(t, query, sqlite.Rebind(query))

	pg := Dialect{Name: "postgres"}
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y = $2`, pg.Rebind(query))
}
