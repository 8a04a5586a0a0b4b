package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/db"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
)

// reconcile runs one repair sweep over requests whose merchant was selected
// but whose booking never got attached, then exits.
// Usage:
//
//	go run ./cmd/adminutil/reconcile -grace 1m
func main() {
	grace := flag.Duration("grace", 0, "Minimum age of an orphaned request (defaults to RECONCILE_GRACE)")
	flag.Parse()

	cfg := config.Read()
	if *grace <= 0 {
		*grace = cfg.Lifecycle.ReconcileGrace
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	st, err := db.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close(ctx)

	engine := marketplace.NewEngine(st, marketplace.WithReconcileGrace(*grace))
	n, err := engine.Reconcile(ctx)
	if err != nil {
		log.Fatalf("reconcile finished with errors after %d repairs: %v", n, err)
	}
	fmt.Printf("Repaired %d orphaned request(s).\n", n)
}
