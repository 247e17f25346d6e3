package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"stationdocs/internal/config"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/repository/postgres"
	"stationdocs/internal/seed"
	"stationdocs/internal/service/hierarchy"

	"github.com/joho/godotenv"
)

func main() {
	seedFile := flag.String("file", "", "Seed file to validate (default: SEED_FILE, then the embedded sample)")
	quiet := flag.Bool("quiet", false, "Validate only, don't print the tree")
	dropTables := flag.Bool("drop-tables", false, "Drop and recreate the blob table")
	schemaOnly := flag.Bool("schema-only", false, "Create the blob table and exit")
	clearData := flag.Bool("clear-data", false, "Delete every stored blob (keep schema)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	if *dropTables || *schemaOnly || *clearData {
		if err := prepareDatabase(cfg, logger, *dropTables, *clearData); err != nil {
			log.Fatalf("Database setup failed: %v", err)
		}
		return
	}

	path := *seedFile
	if path == "" {
		path = cfg.SeedFile
	}
	data, err := seed.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read seed: %v", err)
	}

	// Loading into a scratch store runs the same validation the server does
	store := hierarchy.NewStore(hierarchy.Config{RootLabel: cfg.RootLabel}, logger)
	stats, err := seed.Load(store, data)
	if err != nil {
		log.Fatalf("Seed is invalid: %v", err)
	}

	if !*quiet {
		fmt.Println(store.RootLabel())
		printTree(os.Stdout, store.Tree(), "")
	}
	log.Printf("Seed OK: %d folders, %d files", stats.Folders, stats.Files)
}

// prepareDatabase runs the blob table maintenance requested by the flags
func prepareDatabase(cfg *config.Config, logger *slog.Logger, drop, clear bool) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	repo := postgres.NewBlobRepository(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})
	txManager := postgres.NewTransactionManager(pool, logger)

	log.Printf("Preparing %s (environment: %s)", tables.Blobs, cfg.Environment)
	return txManager.ExecTx(ctx, func(ctx context.Context) error {
		if drop {
			if err := repo.DropSchema(ctx); err != nil {
				return err
			}
			log.Printf("Dropped %s", tables.Blobs)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Printf("Schema ready")

		if clear {
			n, err := repo.Clear(ctx)
			if err != nil {
				return err
			}
			log.Printf("Cleared %d blobs", n)
		}
		return nil
	})
}

func printTree(w io.Writer, nodes []models.Node, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}

		label := n.Name
		if n.IsFolder() {
			label += "/"
		} else {
			var details []string
			if n.Size != "" {
				details = append(details, n.Size)
			}
			if len(n.Content) > 0 {
				details = append(details, fmt.Sprintf("%d pages", len(n.Content)))
			}
			if len(details) > 0 {
				label += " (" + strings.Join(details, ", ") + ")"
			}
		}

		fmt.Fprintf(w, "%s%s%s\n", indent, branch, label)
		printTree(w, n.Children, indent+next)
	}
}
