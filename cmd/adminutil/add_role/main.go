package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/auth"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/db"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// add_role grants a role to a user by email. Granting merchant also creates
// the default merchant profile when the user has none.
// Usage:
//
//	go run ./cmd/adminutil/add_role -email user@example.com -role merchant
func main() {
	email := flag.String("email", "", "Email of the user")
	role := flag.String("role", string(model.RoleMerchant), "Role to grant: customer or merchant")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/add_role -email user@example.com -role merchant")
	}
	r := model.Role(*role)
	if !r.Valid() {
		log.Fatalf("invalid role %q", *role)
	}

	cfg := config.Read()
	if cfg.Store.Driver == "memory" {
		log.Fatalf("add_role needs a persistent store, STORE_DRIVER is memory")
	}
	ctx := context.Background()
	st, err := db.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close(ctx)

	u, err := st.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if errors.Is(err, store.ErrNotFound) {
		log.Fatalf("no user found with email: %s", *email)
	}
	if err != nil {
		log.Fatalf("failed to look up user: %v", err)
	}

	now := time.Now().UTC()
	err = st.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.AddUserRole(ctx, u.ID, r, now); err != nil {
			return err
		}
		if r != model.RoleMerchant {
			return nil
		}
		return auth.EnsureMerchantProfile(ctx, tx, u.ID, uuid.New().String(), now)
	})
	if err != nil {
		log.Fatalf("failed to grant role: %v", err)
	}

	fmt.Printf("User %s now holds the %s role.\n", u.Email, r)
}
