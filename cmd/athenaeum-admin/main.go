// Package main is the entry point for the Athenaeum admin CLI.
// It manages user accounts directly against the configured database,
// without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/athenaeum-lms/athenaeum/internal/config"
	"github.com/athenaeum-lms/athenaeum/internal/repository"
	"github.com/athenaeum-lms/athenaeum/internal/repository/postgres"
	"github.com/athenaeum-lms/athenaeum/internal/repository/sqlite"
	"github.com/athenaeum-lms/athenaeum/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("Athenaeum Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "create-admin":
		runCreateAdmin(os.Args[2:])

	case "user-list":
		runUserList(os.Args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCreateAdmin(args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := fs.String("username", "", "admin username")
	password := fs.String("password", "", "admin password")
	name := fs.String("name", "Administrator", "display name")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "create-admin requires --username and --password")
		os.Exit(1)
	}

	ctx := context.Background()
	repos, cleanup := openRepositories(ctx)
	defer cleanup()

	userService := service.NewUserService(repos.User, 0, zerolog.Nop())
	out, err := userService.Register(ctx, service.RegisterInput{
		Name:     *name,
		Username: *username,
		Password: *password,
		Role:     "ADMIN",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created admin %q (id %d)\n", out.User.Username, out.User.ID)
}

func runUserList(args []string) {
	fs := flag.NewFlagSet("user-list", flag.ExitOnError)
	role := fs.String("role", "", "filter by role (ADMIN, LIBRARIAN, STUDENT)")
	_ = fs.Parse(args)

	ctx := context.Background()
	repos, cleanup := openRepositories(ctx)
	defer cleanup()

	userService := service.NewUserService(repos.User, 0, zerolog.Nop())
	users, err := userService.ListUsers(ctx, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list users: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE")
	for _, user := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", user.ID, user.Username, user.Name, user.Role)
	}
	w.Flush()
}

// openRepositories loads config and connects to the configured backend.
func openRepositories(ctx context.Context) (*repository.Repositories, func()) {
	cfg, err := config.Load(os.Getenv("ATHENAEUM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.Nop()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		return &repository.Repositories{
			User:        postgres.NewUserRepository(db),
			Book:        postgres.NewBookRepository(db),
			Issue:       postgres.NewIssueRepository(db),
			Reservation: postgres.NewReservationRepository(db),
		}, func() { db.Close() }

	default:
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		if err := db.Migrate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to migrate database: %v\n", err)
			os.Exit(1)
		}
		return &repository.Repositories{
			User:        sqlite.NewUserRepository(db),
			Book:        sqlite.NewBookRepository(db),
			Issue:       sqlite.NewIssueRepository(db),
			Reservation: sqlite.NewReservationRepository(db),
		}, func() { db.Close() }
	}
}

func printUsage() {
	fmt.Println(`Athenaeum Admin CLI

Usage:
  athenaeum-admin <command> [arguments]

Commands:
  create-admin  Create an administrator account
  user-list     List user accounts
  version       Print version information
  help          Show this help message

Configuration is read the same way as the server: config.yaml in the
working directory (or ATHENAEUM_CONFIG), overridable with ATHENAEUM_*
environment variables.

Examples:
  athenaeum-admin create-admin --username admin --password <secret>
  athenaeum-admin user-list --role LIBRARIAN`)
}
