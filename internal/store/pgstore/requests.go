package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

const requestColumns = `id, customer_id, service_type, issue, location, status,
    selected_merchant_id, booking_id, created_at, updated_at`

func scanRequest(row pgx.Row) (*model.ServiceRequest, error) {
	var r model.ServiceRequest
	var status string
	err := row.Scan(&r.ID, &r.CustomerID, &r.ServiceType, &r.Issue, &r.Location, &status,
		&r.SelectedMerchantID, &r.BookingID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	r.Status = model.RequestStatus(status)
	r.Offers = []model.Offer{}
	return &r, nil
}

// queryRequests loads requests and their offers in two round trips.
func (s *Store) queryRequests(ctx context.Context, sql string, args ...any) ([]*model.ServiceRequest, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := []*model.ServiceRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachOffers(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) attachOffers(ctx context.Context, reqs []*model.ServiceRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[string]*model.ServiceRequest, len(reqs))
	ids := make([]string, 0, len(reqs))
	for _, r := range reqs {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	rows, err := s.db.Query(ctx, `
        SELECT request_id, merchant_id, price, negotiable, accepted_at
        FROM service_request_offers
        WHERE request_id = ANY($1)
        ORDER BY seq`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var requestID string
		var o model.Offer
		if err := rows.Scan(&requestID, &o.MerchantID, &o.Price, &o.Negotiable, &o.AcceptedAt); err != nil {
			return err
		}
		if r, ok := byID[requestID]; ok {
			r.Offers = append(r.Offers, o)
		}
	}
	return rows.Err()
}

func (s *Store) getRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	reqs, err := s.queryRequests(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, store.ErrNotFound
	}
	return reqs[0], nil
}

func (s *Store) CreateRequest(ctx context.Context, r *model.ServiceRequest) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateRequest")
	defer span.End()

	_, err := s.db.Exec(ctx, `
        INSERT INTO service_requests (`+requestColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.CustomerID, r.ServiceType, r.Issue, r.Location, string(r.Status),
		r.SelectedMerchantID, r.BookingID, r.CreatedAt, r.UpdatedAt,
	)
	return translate(err)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetRequest")
	defer span.End()

	return s.getRequest(ctx, id)
}

func (s *Store) ListRequestsByCustomer(ctx context.Context, customerID string) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListRequestsByCustomer")
	defer span.End()

	return s.queryRequests(ctx, `
        SELECT `+requestColumns+` FROM service_requests
        WHERE customer_id = $1
        ORDER BY created_at DESC`, customerID)
}

func (s *Store) ListOpenRequests(ctx context.Context, serviceType, merchantID string) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOpenRequests")
	defer span.End()

	return s.queryRequests(ctx, `
        SELECT `+requestColumns+` FROM service_requests r
        WHERE r.status IN ('pending','offerSubmitted')
          AND r.selected_merchant_id IS NULL
          AND r.service_type = $1
          AND NOT EXISTS (
              SELECT 1 FROM service_request_offers o
              WHERE o.request_id = r.id AND o.merchant_id = $2
          )
        ORDER BY r.created_at DESC`, serviceType, merchantID)
}

func (s *Store) AppendOffer(ctx context.Context, requestID string, offer model.Offer, limit int) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AppendOffer")
	defer span.End()

	var out *model.ServiceRequest
	err := s.locked(ctx, func(q *Store) error {
		var status string
		var selected *string
		err := q.db.QueryRow(ctx,
			`SELECT status, selected_merchant_id FROM service_requests WHERE id = $1 FOR UPDATE`, requestID,
		).Scan(&status, &selected)
		if err != nil {
			return translate(err)
		}
		if !model.RequestStatus(status).Open() || selected != nil {
			return store.ErrConditionFailed
		}

		var count int
		var already bool
		err = q.db.QueryRow(ctx, `
            SELECT COUNT(*), COALESCE(bool_or(merchant_id = $2), FALSE)
            FROM service_request_offers WHERE request_id = $1`, requestID, offer.MerchantID,
		).Scan(&count, &already)
		if err != nil {
			return err
		}
		if already || count >= limit {
			return store.ErrConditionFailed
		}

		if _, err := q.db.Exec(ctx, `
            INSERT INTO service_request_offers (request_id, merchant_id, price, negotiable, accepted_at)
            VALUES ($1, $2, $3, $4, $5)`,
			requestID, offer.MerchantID, offer.Price, offer.Negotiable, offer.AcceptedAt,
		); err != nil {
			if translate(err) == store.ErrDuplicate {
				return store.ErrConditionFailed
			}
			return err
		}
		if _, err := q.db.Exec(ctx,
			`UPDATE service_requests SET status = 'offerSubmitted', updated_at = $2 WHERE id = $1`,
			requestID, offer.AcceptedAt,
		); err != nil {
			return err
		}
		out, err = q.getRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) MarkSelected(ctx context.Context, requestID, customerID, merchantID string, at time.Time) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.MarkSelected")
	defer span.End()

	tag, err := s.db.Exec(ctx, `
        UPDATE service_requests
        SET selected_merchant_id = $3, status = 'accepted', updated_at = $4
        WHERE id = $1 AND customer_id = $2
          AND status IN ('pending','offerSubmitted')
          AND selected_merchant_id IS NULL
          AND EXISTS (
              SELECT 1 FROM service_request_offers o
              WHERE o.request_id = $1 AND o.merchant_id = $3
          )`, requestID, customerID, merchantID, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, s.exists(ctx, "service_requests", requestID)
	}
	return s.getRequest(ctx, requestID)
}

func (s *Store) AttachBooking(ctx context.Context, requestID, bookingID string, at time.Time) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AttachBooking")
	defer span.End()

	tag, err := s.db.Exec(ctx, `
        UPDATE service_requests
        SET booking_id = $2, status = 'active', updated_at = $3
        WHERE id = $1 AND status = 'accepted' AND booking_id IS NULL`, requestID, bookingID, at)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, s.exists(ctx, "service_requests", requestID)
	}
	return s.getRequest(ctx, requestID)
}

func (s *Store) CompleteRequestForBooking(ctx context.Context, bookingID string, at time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Store.CompleteRequestForBooking")
	defer span.End()

	tag, err := s.db.Exec(ctx,
		`UPDATE service_requests SET status = 'completed', updated_at = $2 WHERE booking_id = $1`,
		bookingID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListOrphanedRequests(ctx context.Context, before time.Time) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOrphanedRequests")
	defer span.End()

	return s.queryRequests(ctx, `
        SELECT `+requestColumns+` FROM service_requests
        WHERE status = 'accepted' AND booking_id IS NULL AND updated_at < $1
        ORDER BY created_at DESC`, before)
}
