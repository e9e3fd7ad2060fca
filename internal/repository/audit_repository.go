package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"aperture/api/internal/models"
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Insert(ctx context.Context, entry models.AuditLogEntry) error {
	const query = `
		INSERT INTO audit_log (
			id, actor_user_id, action, resource_type, resource_id, payload, ip, created_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8
		)
	`

	var payload []byte
	if entry.Payload != nil {
		encoded, err := json.Marshal(entry.Payload)
		if err != nil {
			return err
		}
		payload = encoded
	}

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.ActorUserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		payload,
		entry.IP,
		entry.CreatedAt,
	)
	return err
}

// TrimOlderThan deletes entries past the retention horizon. Returns the
// number of rows removed.
func (r *AuditRepository) TrimOlderThan(ctx context.Context, days int) (int64, error) {
	const query = `DELETE FROM audit_log WHERE created_at < NOW() - make_interval(days => $1)`
	cmd, err := r.pool.Exec(ctx, query, days)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
