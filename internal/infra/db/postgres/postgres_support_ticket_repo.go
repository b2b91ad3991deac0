package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"egas-delivery/internal/domain/model"
	"egas-delivery/internal/domain/ports/repository"
)

var _ repository.SupportTicketRepository = (*PostgresSupportTicketRepo)(nil)

type PostgresSupportTicketRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSupportTicketRepo(pool *pgxpool.Pool) *PostgresSupportTicketRepo {
	return &PostgresSupportTicketRepo{pool: pool}
}

var ticketColumns = []string{
	"id", "ticket_id", "user_id", "subject", "category", "description", "status",
	"attachments", "responses", "assigned_to", "created_at", "updated_at",
}

func scanTicket(row pgx.Row) (*model.SupportTicket, error) {
	var (
		t                      model.SupportTicket
		attachments, responses []byte
	)
	if err := row.Scan(&t.ID, &t.TicketID, &t.UserID, &t.Subject, &t.Category, &t.Description, &t.Status,
		&attachments, &responses, &t.AssignedTo, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attachments, &t.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := json.Unmarshal(responses, &t.Responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return &t, nil
}

func (r *PostgresSupportTicketRepo) Save(ctx context.Context, tx repository.Tx, t *model.SupportTicket) error {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	responses := t.Responses
	if responses == nil {
		responses = []model.TicketResponse{}
	}
	a, err := json.Marshal(attachments)
	if err != nil {
		return fmt.Errorf("encode attachments: %w", err)
	}
	rs, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}

	const q = `
INSERT INTO support_tickets (id, ticket_id, user_id, subject, category, description, status, attachments, responses, assigned_to, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  status=$7, attachments=$8, responses=$9, assigned_to=$10, updated_at=$12;
`
	_, err = execSQL(ctx, r.pool, tx, q, t.ID, t.TicketID, t.UserID, t.Subject, t.Category, t.Description,
		t.Status, a, rs, t.AssignedTo, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save ticket: %w", err)
	}
	return nil
}

func (r *PostgresSupportTicketRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SupportTicket, error) {
	b := sq.Select(ticketColumns...).From("support_tickets").Where(sq.Eq{"id": id})
	if inTx(tx) {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	t, err := scanTicket(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return t, nil
}

func (r *PostgresSupportTicketRepo) List(ctx context.Context, tx repository.Tx, f repository.TicketFilter) ([]*model.SupportTicket, error) {
	off, lim := pageBounds(f.Offset, f.Limit)
	b := sq.Select(ticketColumns...).From("support_tickets").OrderBy("created_at DESC", "id").Offset(off).Limit(lim)
	if f.UserID != "" {
		b = b.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.AssignedTo != "" {
		b = b.Where(sq.Eq{"assigned_to": f.AssignedTo})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		b = b.Where(sq.Eq{"status": statuses})
	}
	q, args, err := b.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []*model.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, scanErr(err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresSupportTicketRepo) CountByCategory(ctx context.Context, tx repository.Tx) (map[model.TicketCategory]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT category, COUNT(*) FROM support_tickets GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	defer rows.Close()

	out := make(map[model.TicketCategory]int)
	for rows.Next() {
		var c model.TicketCategory
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, scanErr(err)
		}
		out[c] = n
	}
	return out, rows.Err()
}
