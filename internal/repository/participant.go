package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mbshop/MIM-egistration-2027/internal/common"
	"github.com/mbshop/MIM-egistration-2027/internal/entity"
)

// listLimit caps list/search results; registrations are browsed newest
// first at the desk, nobody pages through thousands.
const listLimit = 100

// createdAtLayout is RFC 3339 with a fixed-width fraction. created_at is a
// text column ordered lexicographically, and RFC3339Nano's trimmed zeros
// would mis-order rows within the same second.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

type ParticipantRepository interface {
	Insert(ctx context.Context, p *entity.Participant) error
	List(ctx context.Context, query string) ([]*entity.Participant, error)
}

type participantRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewParticipantRepository(db *sql.DB, logger *slog.Logger) ParticipantRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &participantRepository{db: db, logger: logger}
}

func (r *participantRepository) Insert(ctx context.Context, p *entity.Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO participants
		(id, surname, given_name, birth_date, sex, country, city, document_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, q,
		p.ID.String(),
		p.Surname,
		p.GivenName,
		p.BirthDate,
		p.Sex,
		p.Country,
		p.City,
		p.DocumentNumber,
		p.CreatedAt.Format(createdAtLayout),
	)
	if err != nil {
		r.logger.Error("failed to insert participant", "surname", p.Surname, "error", err)
		return common.WrapError(err, "insert participant")
	}
	return nil
}

// List returns participants newest first. A non-empty query matches the id
// exactly or the surname, given name, or document number as a
// case-insensitive substring.
func (r *participantRepository) List(ctx context.Context, query string) ([]*entity.Participant, error) {
	const base = `SELECT id, surname, given_name, birth_date, sex, country, city, document_number, created_at
		FROM participants`

	var rows *sql.Rows
	var err error
	if query != "" {
		q := base + `
		WHERE CAST(id AS TEXT) = $1
		   OR UPPER(surname) LIKE UPPER($2)
		   OR UPPER(given_name) LIKE UPPER($2)
		   OR UPPER(document_number) LIKE UPPER($2)
		ORDER BY created_at DESC LIMIT ` + strconv.Itoa(listLimit)
		rows, err = r.db.QueryContext(ctx, q, query, "%"+query+"%")
	} else {
		q := base + ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(listLimit)
		rows, err = r.db.QueryContext(ctx, q)
	}
	if err != nil {
		r.logger.Error("failed to list participants", "query", query, "error", err)
		return nil, common.WrapError(err, "list participants")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.logger.Warn("rows close error", "error", cerr)
		}
	}()

	var out []*entity.Participant
	for rows.Next() {
		var (
			p         entity.Participant
			id        string
			createdAt string
		)
		if err := rows.Scan(&id, &p.Surname, &p.GivenName, &p.BirthDate, &p.Sex,
			&p.Country, &p.City, &p.DocumentNumber, &createdAt); err != nil {
			return nil, common.WrapError(err, "scan participant")
		}
		if p.ID, err = uuid.Parse(id); err != nil {
			return nil, common.WrapError(err, "parse participant id")
		}
		if p.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, common.WrapError(err, "parse participant created_at")
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
