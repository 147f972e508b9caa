// Package testutil holds helpers shared by tests that need a real Postgres database.
package testutil

import (
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ppdb/storage/database"
)

// PrepareDB connects to TEST_DATABASE_URL, migrates it and empties every table.
// The test is skipped when TEST_DATABASE_URL is not set.
func PrepareDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping())

	require.NoError(t, database.RunMigrations(db, "up"))
	_, err = db.Exec(`TRUNCATE prior_schools, addresses, registrants, users, schools, levels, academic_years
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

type Registration struct {
	Name         string
	Email        string
	Phone        string
	Code         string
	Status       string
	NISN         string
	Level        string
	School       string
	AcademicYear string
	CreatedAt    time.Time
}

// CreateRegistrant inserts a user and their registration, creating the level, school and academic year rows as needed.
func CreateRegistrant(t *testing.T, db *sql.DB, reg Registration) int {
	t.Helper()
	if reg.Status == "" {
		reg.Status = "pending"
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}

	var userID int
	err := db.QueryRow(
		"INSERT INTO users (name, email, phone) VALUES ($1, $2, $3) RETURNING id",
		reg.Name, reg.Email, reg.Phone,
	).Scan(&userID)
	require.NoError(t, err)

	levelID := upsertName(t, db, "levels", reg.Level)
	schoolID := insertName(t, db, "schools", reg.School)
	yearID := upsertName(t, db, "academic_years", reg.AcademicYear)

	_, err = db.Exec(`
		INSERT INTO registrants (user_id, registration_code, status, nisn, name, level_id, school_id, academic_year_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		userID, reg.Code, reg.Status, reg.NISN, reg.Name, levelID, schoolID, yearID, reg.CreatedAt,
	)
	require.NoError(t, err)
	return userID
}

func upsertName(t *testing.T, db *sql.DB, table, name string) sql.NullInt64 {
	t.Helper()
	var id sql.NullInt64
	if name == "" {
		return id
	}
	err := db.QueryRow(
		"INSERT INTO "+table+" (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id",
		name,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func insertName(t *testing.T, db *sql.DB, table, name string) sql.NullInt64 {
	t.Helper()
	var id sql.NullInt64
	if name == "" {
		return id
	}
	err := db.QueryRow("INSERT INTO "+table+" (name) VALUES ($1) RETURNING id", name).Scan(&id)
	require.NoError(t, err)
	return id
}
