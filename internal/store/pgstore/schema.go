package pgstore

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables and indexes the store relies on. Every
// statement is idempotent so it can run on each start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"users", s.ensureUsersTable},
		{"merchant_profiles", s.ensureMerchantProfilesTable},
		{"service_requests", s.ensureServiceRequestsTables},
		{"bookings", s.ensureBookingsTable},
		{"messages", s.ensureMessagesTable},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s: %w", step.name, err)
		}
	}
	return nil
}

func (s *Store) ensureUsersTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            password TEXT NOT NULL,
            roles TEXT[] NOT NULL DEFAULT ARRAY['customer'],
            phone TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));
    `)
	return err
}

func (s *Store) ensureMerchantProfilesTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS merchant_profiles (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
            skill_category TEXT NOT NULL,
            years_experience INTEGER NOT NULL DEFAULT 0 CHECK (years_experience >= 0),
            about TEXT NOT NULL DEFAULT '' CHECK (char_length(about) <= 500),
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            rating DOUBLE PRECISION NOT NULL DEFAULT 4.5 CHECK (rating BETWEEN 0 AND 5),
            previous_work_images TEXT[] NOT NULL DEFAULT '{}',
            profile_picture TEXT NOT NULL DEFAULT '',
            availability TEXT NOT NULL DEFAULT 'offline' CHECK (availability IN ('online','offline')),
            cnic TEXT NOT NULL DEFAULT '',
            certifications TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_merchant_profiles_rating ON merchant_profiles (rating DESC, created_at DESC);
    `)
	return err
}

func (s *Store) ensureServiceRequestsTables(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS service_requests (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL REFERENCES users(id),
            service_type TEXT NOT NULL,
            issue TEXT NOT NULL,
            location TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN (
                'pending','offerSubmitted','accepted','active','completed','cancelled'
            )),
            selected_merchant_id TEXT NULL,
            booking_id TEXT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_service_requests_customer ON service_requests (customer_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_service_requests_open ON service_requests (service_type, created_at DESC)
            WHERE status IN ('pending','offerSubmitted') AND selected_merchant_id IS NULL;
        CREATE INDEX IF NOT EXISTS idx_service_requests_booking ON service_requests (booking_id);

        CREATE TABLE IF NOT EXISTS service_request_offers (
            seq BIGSERIAL,
            request_id TEXT NOT NULL REFERENCES service_requests(id) ON DELETE CASCADE,
            merchant_id TEXT NOT NULL,
            price DOUBLE PRECISION NOT NULL CHECK (price > 0),
            negotiable BOOLEAN NOT NULL DEFAULT FALSE,
            accepted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (request_id, merchant_id)
        );
    `)
	return err
}

func (s *Store) ensureBookingsTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            merchant_id TEXT NOT NULL,
            service_request_id TEXT NULL UNIQUE,
            service_type TEXT NOT NULL,
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN (
                'pending','accepted','active','completed','cancelled'
            )),
            address TEXT NOT NULL DEFAULT '',
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings (customer_id, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_bookings_merchant ON bookings (merchant_id, created_at DESC);
    `)
	return err
}

func (s *Store) ensureMessagesTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS messages (
            seq BIGSERIAL,
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            receiver_id TEXT NOT NULL,
            body TEXT NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages (booking_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (receiver_id, created_at DESC) WHERE read = FALSE;
    `)
	return err
}
