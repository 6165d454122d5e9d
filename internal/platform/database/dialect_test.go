package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"", Postgres},
		{"postgres", Postgres},
		{" PGX ", Postgres},
		{"postgresql", Postgres},
		{"sqlite", SQLite},
		{"SQLite3", SQLite},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDialect("mysql")
	assert.Error(t, err)

	assert.Equal(t, "pgx", Postgres.DriverName())
	assert.Equal(t, "sqlite", SQLite.DriverName())
}

func TestRebind(t *testing.T) {
	query := `UPDATE problems SET title = ?, updated_at = ? WHERE problem_id = ? AND owner_id = ?`

	assert.Equal(t,
		`UPDATE problems SET title = $1, updated_at = $2 WHERE problem_id = $3 AND owner_id = $4`,
		Postgres.Rebind(query))
	assert.Equal(t, query, SQLite.Rebind(query))
	assert.Equal(t, "SELECT 1", Postgres.Rebind("SELECT 1"))

	many := "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	assert.Equal(t, "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)", Postgres.Rebind(many))
}

func TestTimeEncoding(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 30, 5, 123456000, time.FixedZone("CET", 3600))

	pg, ok := Postgres.Time(at).(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, pg.Location())
	assert.True(t, pg.Equal(at))

	assert.Equal(t, "2024-03-09T13:30:05.123456Z", SQLite.Time(at))
}

func TestScanTime(t *testing.T) {
	want := time.Date(2024, 3, 9, 13, 30, 5, 123456000, time.UTC)

	tests := []struct {
		name string
		src  any
	}{
		{"native timestamptz", want.In(time.FixedZone("CET", 3600))},
		{"rfc3339 text", "2024-03-09T13:30:05.123456Z"},
		{"rfc3339 bytes", []byte("2024-03-09T14:30:05.123456+01:00")},
		{"sqlite datetime with zone", "2024-03-09 13:30:05.123456+00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got time.Time
			require.NoError(t, ScanTime(&got).Scan(tt.src))
			assert.Equal(t, want, got)
		})
	}

	var got time.Time
	require.NoError(t, ScanTime(&got).Scan(nil))
	assert.True(t, got.IsZero())

	assert.Error(t, ScanTime(&got).Scan("yesterday"))
	assert.Error(t, ScanTime(&got).Scan(42))
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert topic: %w", dup)))

	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}
