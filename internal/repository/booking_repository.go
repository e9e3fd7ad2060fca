package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"aperture/api/internal/models"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Create(ctx context.Context, booking models.Booking) error {
	const query = `
		INSERT INTO bookings (
			id, email, name, service_type, message, preferred_at, status, created_at
		) VALUES (
			$1, LOWER($2), $3, $4, $5, $6, $7, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		booking.ID,
		booking.Email,
		booking.Name,
		booking.ServiceType,
		booking.Message,
		booking.PreferredAt,
		booking.Status,
	)
	return err
}
