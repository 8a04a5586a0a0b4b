package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

const bookingColumns = `id, customer_id, merchant_id, service_request_id, service_type, price,
    status, address, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	var status string
	err := row.Scan(&b.ID, &b.CustomerID, &b.MerchantID, &b.ServiceRequestID, &b.ServiceType, &b.Price,
		&status, &b.Address, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}

func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateBooking")
	defer span.End()

	tag, err := s.db.Exec(ctx, `
        INSERT INTO bookings (`+bookingColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT DO NOTHING`,
		b.ID, b.CustomerID, b.MerchantID, b.ServiceRequestID, b.ServiceType, b.Price,
		string(b.Status), b.Address, b.Notes, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrDuplicate
	}
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBooking")
	defer span.End()

	return scanBooking(s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (s *Store) GetBookingForRequest(ctx context.Context, requestID string) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBookingForRequest")
	defer span.End()

	return scanBooking(s.db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE service_request_id = $1`, requestID))
}

func (s *Store) ListOpenBookings(ctx context.Context, f store.BookingFilter) ([]*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOpenBookings")
	defer span.End()

	column, value := "customer_id", f.CustomerID
	if f.MerchantID != "" {
		column, value = "merchant_id", f.MerchantID
	}
	rows, err := s.db.Query(ctx, `
        SELECT `+bookingColumns+` FROM bookings
        WHERE `+column+` = $1 AND status <> 'completed'
        ORDER BY created_at DESC`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) TransitionBooking(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.TransitionBooking")
	defer span.End()

	b, err := scanBooking(s.db.QueryRow(ctx, `
        UPDATE bookings SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2
        RETURNING `+bookingColumns, id, string(from), string(to), at))
	if err == store.ErrNotFound {
		return nil, s.exists(ctx, "bookings", id)
	}
	return b, err
}

const messageColumns = `id, booking_id, sender_id, receiver_id, body, read, created_at`

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.ReceiverID, &m.Body, &m.Read, &m.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *model.Message) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateMessage")
	defer span.End()

	_, err := s.db.Exec(ctx, `
        INSERT INTO messages (`+messageColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.BookingID, m.SenderID, m.ReceiverID, m.Body, m.Read, m.CreatedAt,
	)
	return translate(err)
}

func (s *Store) ListMessages(ctx context.Context, bookingID string) ([]*model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListMessages")
	defer span.End()

	rows, err := s.db.Query(ctx, `
        SELECT `+messageColumns+` FROM messages
        WHERE booking_id = $1
        ORDER BY created_at, seq`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MarkThreadRead(ctx context.Context, bookingID, receiverID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Store.MarkThreadRead")
	defer span.End()

	tag, err := s.db.Exec(ctx,
		`UPDATE messages SET read = TRUE WHERE booking_id = $1 AND receiver_id = $2 AND read = FALSE`,
		bookingID, receiverID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Store.CountUnread")
	defer span.End()

	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read = FALSE`, receiverID,
	).Scan(&n)
	return n, err
}

func (s *Store) LatestUnread(ctx context.Context, receiverID string) (*model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "Store.LatestUnread")
	defer span.End()

	return scanMessage(s.db.QueryRow(ctx, `
        SELECT `+messageColumns+` FROM messages
        WHERE receiver_id = $1 AND read = FALSE
        ORDER BY created_at DESC, seq DESC
        LIMIT 1`, receiverID))
}
