package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	"github.com/noah-isme/pointku-api/pkg/config"
	"github.com/noah-isme/pointku-api/pkg/database"
)

type driftSource interface {
	Drift(ctx context.Context) ([]models.PointDrift, error)
}

type report struct {
	CheckedAt time.Time           `json:"checked_at"`
	Drifts    []models.PointDrift `json:"drifts"`
}

func main() {
	var (
		asJSON  bool
		timeout time.Duration
	)
	flag.BoolVar(&asJSON, "json", false, "Print the report as JSON")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	rep, err := audit(ctx, repository.NewUserRepository(db))
	if err != nil {
		log.Fatalf("audit failed: %v", err)
	}

	if asJSON {
		err = json.NewEncoder(os.Stdout).Encode(rep)
	} else {
		err = printReport(os.Stdout, rep)
	}
	if err != nil {
		log.Fatalf("write report: %v", err)
	}
	if len(rep.Drifts) > 0 {
		os.Exit(1)
	}
}

func audit(ctx context.Context, src driftSource) (report, error) {
	drifts, err := src.Drift(ctx)
	if err != nil {
		return report{}, err
	}
	return report{CheckedAt: time.Now().UTC(), Drifts: drifts}, nil
}

func printReport(w io.Writer, rep report) error {
	var err error
	write := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	write("Point Ledger Audit\n")
	write("==================\n")
	for _, d := range rep.Drifts {
		write("[DRIFT] %s (%s)\n", d.StudentID, d.Name)
		write("  Cached: %d | History: %d | Difference: %+d\n", d.Cached, d.Ledger, d.Difference())
	}
	write("Students out of balance: %d\n", len(rep.Drifts))
	return err
}
