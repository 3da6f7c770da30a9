package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	"github.com/noah-isme/liceo-academic-api/migrations"
	"github.com/noah-isme/liceo-academic-api/pkg/config"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	"github.com/noah-isme/liceo-academic-api/pkg/logger"
)

const usage = `usage: migrate [flags] <command> [args]

commands:
  up | down | status | redo | version | reset   run goose against the embedded migrations
  seed-admin                                    create or refresh the administrator account

flags:
`

func main() {
	email := flag.String("email", "admin@liceo.local", "administrator email for seed-admin")
	password := flag.String("password", "", "administrator password for seed-admin")
	name := flag.String("name", "Administrador", "administrator full name for seed-admin")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	command := flag.Arg(0)

	if command == "seed-admin" {
		if err := seedAdmin(ctx, repository.NewUserRepository(db), *email, *password, *name); err != nil {
			logr.Fatal("seed admin failed", zap.Error(err))
		}
		logr.Info("administrator ready", zap.String("email", strings.ToLower(*email)))
		return
	}

	if err := database.Migrate(ctx, db, migrations.FS, migrations.Dir, command, flag.Args()[1:]...); err != nil {
		logr.Fatal("migration failed", zap.String("command", command), zap.Error(err))
	}
	logr.Info("migration finished", zap.String("command", command))
}

type userCreator interface {
	Create(ctx context.Context, user *models.User) error
}

func seedAdmin(ctx context.Context, users userCreator, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return fmt.Errorf("seed-admin needs -email and a -password of at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return users.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         models.RoleAdmin,
		Active:       true,
	})
}
