// Package sync imports game-data dumps into the catalog database.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rcarv/factory-planner/internal/db"
	"github.com/rcarv/factory-planner/pkg/factory"
)

// Syncer loads game-data JSON dumps into SQLite.
type Syncer struct {
	db    *db.DB
	store *db.CatalogStore
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{
		db:    database,
		store: db.NewCatalogStore(database),
	}
}

// ImportFromFile reads a game-data JSON dump and replaces the stored
// catalog with its contents.
func (s *Syncer) ImportFromFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	var data factory.GameData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return s.Import(ctx, &data)
}

// Import replaces the stored catalog and records import metadata.
func (s *Syncer) Import(ctx context.Context, data *factory.GameData) error {
	if err := s.store.ReplaceCatalog(ctx, data); err != nil {
		return fmt.Errorf("replacing catalog: %w", err)
	}

	if err := s.db.SetMetadata(ctx, "last_import_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if err := s.db.SetMetadata(ctx, "recipe_count", strconv.Itoa(len(data.Recipes))); err != nil {
		return err
	}
	return s.db.SetMetadata(ctx, "item_count", strconv.Itoa(len(data.Items)))
}

// LoadGameData returns the stored catalog.
func (s *Syncer) LoadGameData(ctx context.Context) (*factory.GameData, error) {
	return s.store.LoadGameData(ctx)
}
