package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nsu-it/helpdesk-service/internal/domain"
)

// TicketNoteRepository stores the append-only note thread.
type TicketNoteRepository interface {
	Create(ctx context.Context, note *domain.TicketNote) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketNote, error)
}

type ticketNoteRepository struct {
	pool *pgxpool.Pool
}

// NewTicketNoteRepository builds repository.
func NewTicketNoteRepository(pool *pgxpool.Pool) TicketNoteRepository {
	return &ticketNoteRepository{pool: pool}
}

func (r *ticketNoteRepository) Create(ctx context.Context, note *domain.TicketNote) error {
	const query = `
        INSERT INTO ticket_notes (ticket_id, author_type, author_id, body, internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		note.TicketID,
		note.AuthorType,
		note.AuthorID,
		note.Body,
		note.Internal,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *ticketNoteRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketNote, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_id, body, internal, created_at
        FROM ticket_notes WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketNote
	for rows.Next() {
		var note domain.TicketNote
		if err := rows.Scan(
			&note.ID,
			&note.TicketID,
			&note.AuthorType,
			&note.AuthorID,
			&note.Body,
			&note.Internal,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
