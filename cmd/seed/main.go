package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	"github.com/noah-isme/pointku-api/internal/service"
	"github.com/noah-isme/pointku-api/pkg/config"
	"github.com/noah-isme/pointku-api/pkg/database"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
	"github.com/noah-isme/pointku-api/pkg/logger"
)

type seedClass struct {
	kelasID, kelasName   string
	rombelID, rombelName string
}

var classes = []seedClass{
	{kelasID: "kelas-x", kelasName: "X", rombelID: "rombel-x-1", rombelName: "X IPA 1"},
	{kelasID: "kelas-xi", kelasName: "XI", rombelID: "rombel-xi-1", rombelName: "XI IPS 1"},
}

func main() {
	var (
		password  string
		withToken bool
		withDemo  bool
	)
	flag.StringVar(&password, "password", "password123", "Password assigned to every seeded account")
	flag.BoolVar(&withToken, "token", false, "Print an admin access token after seeding")
	flag.BoolVar(&withDemo, "demo-points", false, "Award a few sample points through the ledger")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	classRepo := repository.NewClassRepository(db)
	for _, cl := range classes {
		if err := classRepo.UpsertKelas(ctx, cl.kelasID, cl.kelasName); err != nil {
			logr.Fatal("seed kelas", zap.Error(err))
		}
		if err := classRepo.UpsertRombel(ctx, cl.rombelID, cl.kelasID, cl.rombelName); err != nil {
			logr.Fatal("seed rombel", zap.Error(err))
		}
	}

	userRepo := repository.NewUserRepository(db)
	accounts := service.NewAccountService(userRepo, validator.New(), logr)
	rombelX, rombelXI := classes[0].rombelID, classes[1].rombelID
	requests := []dto.ProvisionUserRequest{
		{Name: "Administrator", Username: "admin", Role: string(models.RoleAdmin)},
		{Name: "Sari Wulandari", Username: "guru.sari", Role: string(models.RoleTeacher)},
		{Name: "Budi Santoso", Username: "guru.budi", Role: string(models.RoleTeacher)},
		{Name: "Ani Lestari", Username: "ani", Role: string(models.RoleStudent), RombelID: &rombelX},
		{Name: "Dewi Anggraini", Username: "dewi", Role: string(models.RoleStudent), RombelID: &rombelX},
		{Name: "Eko Prasetyo", Username: "eko", Role: string(models.RoleStudent), RombelID: &rombelXI},
	}

	users := make(map[string]*models.User, len(requests))
	for _, req := range requests {
		req.Password = password
		user, err := accounts.Provision(ctx, req)
		if errors.Is(err, appErrors.ErrConflict) {
			if user, err = userRepo.FindByUsername(ctx, req.Username); err == nil {
				logr.Info("account exists, skipping", zap.String("username", req.Username))
			}
		}
		if err != nil {
			logr.Fatal("seed account", zap.String("username", req.Username), zap.Error(err))
		}
		users[req.Username] = user
	}

	if withDemo {
		ledger := service.NewPointLedgerService(repository.NewPointHistoryRepository(db), validator.New(), logr, nil, nil)
		admin := models.AdminViewer{UserID: users["admin"].ID}
		awards := []dto.AwardPointsRequest{
			{StudentID: users["ani"].ID, IssuerID: users["guru.sari"].ID, Points: 10, Reason: "Juara lomba cerdas cermat"},
			{StudentID: users["dewi"].ID, IssuerID: users["guru.sari"].ID, Points: 5, Reason: "Membantu kegiatan kelas"},
			{StudentID: users["eko"].ID, IssuerID: users["guru.budi"].ID, Points: -3, Reason: "Terlambat masuk kelas"},
		}
		for _, award := range awards {
			if _, err := ledger.Award(ctx, admin, award); err != nil {
				logr.Fatal("seed points", zap.Error(err))
			}
		}
	}

	logr.Info("seed completed", zap.Int("accounts", len(users)))

	if withToken {
		token, expiresAt, err := service.NewTokenService(cfg.JWT).Issue(users["admin"])
		if err != nil {
			logr.Fatal("issue token", zap.Error(err))
		}
		fmt.Printf("admin token (expires %s):\n%s\n", expiresAt.Format(time.RFC3339), token)
	}
}
