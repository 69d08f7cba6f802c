package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarv/factory-planner/internal/db"
)

const gameDataJSON = `{
	"items": [
		{"key": "iron-plate", "type": "item"},
		{"key": "iron-gear-wheel", "type": "item"}
	],
	"recipes": [
		{
			"key": "iron-gear-wheel",
			"ingredients": [{"name": "iron-plate", "amount": 2}],
			"results": [{"name": "iron-gear-wheel", "amount": 1}],
			"energy_required": 0.5,
			"category": "crafting",
			"allow_productivity": true
		}
	],
	"crafting_machines": [
		{"key": "assembler", "module_slots": 4, "crafting_speed": 1.25, "crafting_categories": ["crafting"]}
	],
	"resources": [],
	"mining_drills": []
}`

func TestImportFromFile(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenAndInit(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	path := filepath.Join(t.TempDir(), "game-data.json")
	require.NoError(t, os.WriteFile(path, []byte(gameDataJSON), 0o644))

	syncer := NewSyncer(database)
	require.NoError(t, syncer.ImportFromFile(ctx, path))

	data, err := syncer.LoadGameData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Items, 2)
	require.Len(t, data.Recipes, 1)
	assert.Equal(t, "iron-gear-wheel", data.Recipes[0].Key)
	require.Len(t, data.Recipes[0].Ingredients, 1)
	assert.Equal(t, 2.0, data.Recipes[0].Ingredients[0].Amount)
	require.NotNil(t, data.Recipes[0].Results[0].Amount)
	assert.Equal(t, 1.0, *data.Recipes[0].Results[0].Amount)

	recipeCount, err := database.GetMetadata(ctx, "recipe_count")
	require.NoError(t, err)
	assert.Equal(t, "1", recipeCount)
	itemCount, err := database.GetMetadata(ctx, "item_count")
	require.NoError(t, err)
	assert.Equal(t, "2", itemCount)
	lastImport, err := database.GetMetadata(ctx, "last_import_at")
	require.NoError(t, err)
	assert.NotEmpty(t, lastImport)
}

func TestImportFromFileErrors(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenAndInit(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	syncer := NewSyncer(database)

	assert.Error(t, syncer.ImportFromFile(ctx, filepath.Join(t.TempDir(), "missing.json")))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	assert.Error(t, syncer.ImportFromFile(ctx, bad))
}
