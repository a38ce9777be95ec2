package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mbshop/MIM-egistration-2027/internal/entity"
)

// openTestDB loads the production schema into an embedded sqlite database.
// The schema is written to be portable between postgres and sqlite.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile("../../db/migrations/001_participants.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func testParticipant(surname string, createdAt time.Time) *entity.Participant {
	return &entity.Participant{
		Surname:        surname,
		GivenName:      "YASMINE",
		BirthDate:      "1995-03-12",
		Sex:            "F",
		Country:        "Morocco",
		City:           "Rabat",
		DocumentNumber: "AB123456",
		CreatedAt:      createdAt,
	}
}

func TestParticipantRepositoryInsert(t *testing.T) {
	ctx := context.Background()
	repo := NewParticipantRepository(openTestDB(t), nil)

	t.Run("assigns id and created at", func(t *testing.T) {
		p := testParticipant("ALAOUI", time.Time{})
		require.NoError(t, repo.Insert(ctx, p))
		require.NotEqual(t, uuid.Nil, p.ID)
		require.False(t, p.CreatedAt.IsZero())
	})

	t.Run("round trips all fields", func(t *testing.T) {
		createdAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		p := testParticipant("BENNANI", createdAt)
		require.NoError(t, repo.Insert(ctx, p))

		recs, err := repo.List(ctx, "BENNANI")
		require.NoError(t, err)
		require.Len(t, recs, 1)

		got := recs[0]
		require.Equal(t, p.ID, got.ID)
		require.Equal(t, "BENNANI", got.Surname)
		require.Equal(t, "YASMINE", got.GivenName)
		require.Equal(t, "1995-03-12", got.BirthDate)
		require.Equal(t, "F", got.Sex)
		require.Equal(t, "Morocco", got.Country)
		require.Equal(t, "Rabat", got.City)
		require.Equal(t, "AB123456", got.DocumentNumber)
		require.True(t, got.CreatedAt.Equal(createdAt))
	})
}

func TestParticipantRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewParticipantRepository(openTestDB(t), nil)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	older := testParticipant("ALAOUI", base)
	newer := testParticipant("BENNANI", base.Add(time.Minute))
	newer.DocumentNumber = "CD789012"
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	t.Run("newest first without query", func(t *testing.T) {
		recs, err := repo.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		require.Equal(t, "BENNANI", recs[0].Surname)
		require.Equal(t, "ALAOUI", recs[1].Surname)
	})

	t.Run("case insensitive substring search", func(t *testing.T) {
		recs, err := repo.List(ctx, "alao")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.Equal(t, "ALAOUI", recs[0].Surname)
	})

	t.Run("search by document number", func(t *testing.T) {
		recs, err := repo.List(ctx, "cd789")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.Equal(t, "BENNANI", recs[0].Surname)
	})

	t.Run("search by exact id", func(t *testing.T) {
		recs, err := repo.List(ctx, older.ID.String())
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.Equal(t, older.ID, recs[0].ID)
	})

	t.Run("no match yields empty slice", func(t *testing.T) {
		recs, err := repo.List(ctx, "ZZZZZ")
		require.NoError(t, err)
		require.Empty(t, recs)
	})
}

func TestParticipantRepositoryListSubSecondOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewParticipantRepository(openTestDB(t), nil)

	// 500ms and 520ms apart within the same second: a trimmed-zero text
	// encoding (".5Z" vs ".52Z") would sort these the wrong way round.
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	older := testParticipant("ALAOUI", base.Add(500*time.Millisecond))
	newer := testParticipant("BENNANI", base.Add(520*time.Millisecond))
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	recs, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "BENNANI", recs[0].Surname)
	require.Equal(t, "ALAOUI", recs[1].Surname)
	require.True(t, recs[1].CreatedAt.Equal(older.CreatedAt))
}
