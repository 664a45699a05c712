package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/leaguesync/go/internal/dbconfig"
	"github.com/mcdev12/leaguesync/go/internal/docstore"
	"github.com/mcdev12/leaguesync/go/internal/models"
	"github.com/mcdev12/leaguesync/go/internal/schema"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Fixture maps a collection name to its documents. Every document carries
// its id next to its attributes.
type Fixture map[string][]map[string]any

type seedSummary struct {
	total    int
	inserted int
	skipped  int
	errs     int
}

// NewMigrateCommand creates the documents table in Postgres
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres documents table",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := setupDatabase(cmd.Context(), dbconfig.NewConfigFromEnv())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := docstore.NewPostgresBackend(db).Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("documents table ready")
			return nil
		},
	}
}

// NewSeedCommand loads a JSON fixture into the configured backend
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON fixture of league documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := loadFixture(path)
			if err != nil {
				return err
			}

			validator, err := schema.New()
			if err != nil {
				return fmt.Errorf("failed to compile document schema: %w", err)
			}

			var summary seedSummary
			switch opts.config.Store.Backend {
			case BackendMemory:
				return errors.New("the memory backend lives inside serve and cannot be seeded")
			case BackendPostgres:
				summary, err = seedPostgres(cmd.Context(), fixture, validator)
			default:
				summary, err = seedStore(cmd.Context(), opts.config, fixture, validator)
			}
			if err != nil {
				return err
			}

			fmt.Printf(
				"Seed complete: %d total, %d inserted, %d skipped, %d errors\n",
				summary.total, summary.inserted, summary.skipped, summary.errs,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "go/internal/assets/league.json", "fixture to load")
	return cmd
}

func loadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var fixture Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	for collection := range fixture {
		if !models.IsCollection(collection) {
			return nil, fmt.Errorf("fixture names unknown collection %q", collection)
		}
	}
	return fixture, nil
}

// documents splits the fixture into raw documents and drops those that fail
// the collection schema
func (f Fixture) documents(validator *schema.Validator, summary *seedSummary) map[string][]models.RawDocument {
	out := make(map[string][]models.RawDocument, len(f))
	for _, collection := range models.Collections {
		for _, entry := range f[collection] {
			summary.total++
			id, _ := entry["id"].(string)
			if id == "" {
				log.Error().Str("collection", collection).Msg("fixture document has no id")
				summary.errs++
				continue
			}
			attrs := make(map[string]any, len(entry))
			for k, v := range entry {
				if k != "id" {
					attrs[k] = v
				}
			}
			doc := models.RawDocument{ID: id, Attributes: attrs}
			if _, err := validator.Validate(collection, doc); err != nil {
				log.Error().Err(err).Str("collection", collection).Str("id", id).Msg("invalid fixture document")
				summary.errs++
				continue
			}
			out[collection] = append(out[collection], doc)
		}
	}
	return out
}

func seedPostgres(ctx context.Context, fixture Fixture, validator *schema.Validator) (seedSummary, error) {
	var summary seedSummary
	docs := fixture.documents(validator, &summary)

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return summary, fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	channel := docstore.DefaultPGFeedConfig().Channel
	for _, collection := range models.Collections {
		for _, doc := range docs[collection] {
			attrs, err := json.Marshal(doc.Attributes)
			if err != nil {
				summary.errs++
				continue
			}
			cmdTag, err := pool.Exec(ctx, `
                INSERT INTO documents (collection, id, attributes)
                VALUES ($1, $2, $3)
                ON CONFLICT (collection, id) DO NOTHING
            `, collection, doc.ID, attrs)
			if err != nil {
				log.Error().Err(err).Str("collection", collection).Str("id", doc.ID).Msg("failed to insert document")
				summary.errs++
				continue
			}
			if cmdTag.RowsAffected() == 1 {
				summary.inserted++
			} else {
				summary.skipped++
			}
		}

		// running servers on the postgres feed re-read the collection
		if _, err := pool.Exec(ctx, `SELECT pg_notify($1, $2)`, channel, collection); err != nil {
			log.Warn().Err(err).Str("collection", collection).Msg("failed to notify change feed")
		}
	}
	return summary, nil
}

func seedStore(ctx context.Context, config *Config, fixture Fixture, validator *schema.Validator) (seedSummary, error) {
	var summary seedSummary
	docs := fixture.documents(validator, &summary)

	store, err := setupStore(ctx, config)
	if err != nil {
		return summary, err
	}
	defer store.Close(context.WithoutCancel(ctx))

	for _, collection := range models.Collections {
		for _, doc := range docs[collection] {
			if err := store.CreateWithID(ctx, collection, doc.Attributes, doc.ID); err != nil {
				log.Error().Err(err).Str("collection", collection).Str("id", doc.ID).Msg("failed to write document")
				summary.errs++
				continue
			}
			summary.inserted++
		}
	}
	return summary, nil
}
