// Command bootstrap provisions the initial admin account. It connects to the
// database, runs pending migrations, and creates an admin user with a
// password read from the terminal without echo. It refuses to overwrite an
// existing account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"

	"golang.org/x/term"

	"github.com/ssemyonovs/cloudvault/internal/common"
	"github.com/ssemyonovs/cloudvault/internal/server/auth"
	"github.com/ssemyonovs/cloudvault/internal/server/models"
	"github.com/ssemyonovs/cloudvault/internal/server/repositories/repomanager"
)

func main() {
	dsn := flag.String("d", "", "database dsn")
	username := flag.String("u", "admin", "admin username")
	email := flag.String("e", "", "admin email")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("database dsn is required (-d)")
	}

	if err := run(context.Background(), *dsn, *username, *email); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, dsn, username, email string) error {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	repo := m.Users(db)
	if _, err := repo.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("user %q already exists", username)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return err
	}
	fmt.Println()

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		return err
	}

	user, err := repo.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		return fmt.Errorf("error creating admin: %w", err)
	}

	fmt.Printf("admin %q created, id=%d\n", user.Username, user.ID)
	return nil
}
