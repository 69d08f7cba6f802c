package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rcarv/factory-planner/pkg/factory"
)

// CatalogStore handles game-data catalog access.
type CatalogStore struct {
	db *DB
}

// NewCatalogStore creates a new CatalogStore.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// ReplaceCatalog clears any stored catalog and bulk-inserts the given one
// in a single transaction.
func (s *CatalogStore) ReplaceCatalog(ctx context.Context, data *factory.GameData) error {
	return s.db.InTransaction(ctx, func(tx *sql.Tx) error {
		// Child tables cascade.
		for _, table := range []string{"items", "recipes", "crafting_machines", "resources", "mining_drills"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		if err := insertItems(ctx, tx, data.Items); err != nil {
			return err
		}
		if err := insertRecipes(ctx, tx, data.Recipes); err != nil {
			return err
		}
		if err := insertMachines(ctx, tx, data.CraftingMachines); err != nil {
			return err
		}
		if err := insertResources(ctx, tx, data.Resources); err != nil {
			return err
		}
		return insertDrills(ctx, tx, data.MiningDrills)
	})
}

func insertItems(ctx context.Context, tx *sql.Tx, items []factory.Item) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (key, type, localized_name) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing item statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		name, err := marshalName(item.LocalizedName)
		if err != nil {
			return fmt.Errorf("encoding name for item %s: %w", item.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, item.Key, item.Type, name); err != nil {
			return fmt.Errorf("inserting item %s: %w", item.Key, err)
		}
	}
	return nil
}

func insertRecipes(ctx context.Context, tx *sql.Tx, recipes []factory.Recipe) error {
	recipeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipes (key, energy_required, category, allow_productivity, localized_name)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing recipe statement: %w", err)
	}
	defer func() { _ = recipeStmt.Close() }()

	ingStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_ingredients (recipe_key, position, name, amount)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing ingredient statement: %w", err)
	}
	defer func() { _ = ingStmt.Close() }()

	resStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_results
		(recipe_key, position, name, amount, amount_min, amount_max, probability, ignored_by_productivity, extra_count_fraction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing result statement: %w", err)
	}
	defer func() { _ = resStmt.Close() }()

	for _, r := range recipes {
		name, err := marshalName(r.LocalizedName)
		if err != nil {
			return fmt.Errorf("encoding name for recipe %s: %w", r.Key, err)
		}
		if _, err := recipeStmt.ExecContext(ctx, r.Key, r.EnergyRequired, r.Category, r.AllowProductivity, name); err != nil {
			return fmt.Errorf("inserting recipe %s: %w", r.Key, err)
		}
		for i, ing := range r.Ingredients {
			if _, err := ingStmt.ExecContext(ctx, r.Key, i, ing.Name, ing.Amount); err != nil {
				return fmt.Errorf("inserting ingredient for %s: %w", r.Key, err)
			}
		}
		for i, res := range r.Results {
			if err := execResult(ctx, resStmt, r.Key, i, res); err != nil {
				return fmt.Errorf("inserting result for %s: %w", r.Key, err)
			}
		}
	}
	return nil
}

func insertMachines(ctx context.Context, tx *sql.Tx, machines []factory.CraftingMachine) error {
	machineStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crafting_machines (key, module_slots, crafting_speed, prod_bonus)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing machine statement: %w", err)
	}
	defer func() { _ = machineStmt.Close() }()

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO machine_categories (machine_key, category) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing category statement: %w", err)
	}
	defer func() { _ = catStmt.Close() }()

	for _, m := range machines {
		if _, err := machineStmt.ExecContext(ctx, m.Key, m.ModuleSlots, m.CraftingSpeed, m.ProdBonus); err != nil {
			return fmt.Errorf("inserting machine %s: %w", m.Key, err)
		}
		for _, c := range m.CraftingCategories {
			if _, err := catStmt.ExecContext(ctx, m.Key, c); err != nil {
				return fmt.Errorf("inserting category for %s: %w", m.Key, err)
			}
		}
	}
	return nil
}

func insertResources(ctx context.Context, tx *sql.Tx, resources []factory.Resource) error {
	resourceStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO resources (key, mining_time, category, required_fluid, fluid_amount)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing resource statement: %w", err)
	}
	defer func() { _ = resourceStmt.Close() }()

	resStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO resource_results
		(resource_key, position, name, amount, amount_min, amount_max, probability, ignored_by_productivity, extra_count_fraction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing resource result statement: %w", err)
	}
	defer func() { _ = resStmt.Close() }()

	for _, r := range resources {
		fluid := sql.NullString{String: r.RequiredFluid, Valid: r.RequiredFluid != ""}
		if _, err := resourceStmt.ExecContext(ctx, r.Key, r.MiningTime, r.Category, fluid, r.FluidAmount); err != nil {
			return fmt.Errorf("inserting resource %s: %w", r.Key, err)
		}
		for i, res := range r.Results {
			if err := execResult(ctx, resStmt, r.Key, i, res); err != nil {
				return fmt.Errorf("inserting result for resource %s: %w", r.Key, err)
			}
		}
	}
	return nil
}

func insertDrills(ctx context.Context, tx *sql.Tx, drills []factory.MiningDrill) error {
	drillStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mining_drills (key, module_slots, mining_speed) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing drill statement: %w", err)
	}
	defer func() { _ = drillStmt.Close() }()

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drill_categories (drill_key, category) VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing drill category statement: %w", err)
	}
	defer func() { _ = catStmt.Close() }()

	for _, d := range drills {
		if _, err := drillStmt.ExecContext(ctx, d.Key, d.ModuleSlots, d.MiningSpeed); err != nil {
			return fmt.Errorf("inserting drill %s: %w", d.Key, err)
		}
		for _, c := range d.ResourceCategories {
			if _, err := catStmt.ExecContext(ctx, d.Key, c); err != nil {
				return fmt.Errorf("inserting category for drill %s: %w", d.Key, err)
			}
		}
	}
	return nil
}

func execResult(ctx context.Context, stmt *sql.Stmt, owner string, position int, res factory.Result) error {
	amount := sql.NullFloat64{}
	if res.Amount != nil {
		amount = sql.NullFloat64{Float64: *res.Amount, Valid: true}
	}
	probability := sql.NullFloat64{}
	if res.Probability != nil {
		probability = sql.NullFloat64{Float64: *res.Probability, Valid: true}
	}
	_, err := stmt.ExecContext(ctx, owner, position, res.Name,
		amount, res.AmountMin, res.AmountMax, probability,
		res.IgnoredByProductivity, res.ExtraCountFraction)
	return err
}

// LoadGameData reconstructs the full catalog from storage.
func (s *CatalogStore) LoadGameData(ctx context.Context) (*factory.GameData, error) {
	data := &factory.GameData{}

	if err := s.loadItems(ctx, data); err != nil {
		return nil, err
	}
	if err := s.loadRecipes(ctx, data); err != nil {
		return nil, err
	}
	if err := s.loadMachines(ctx, data); err != nil {
		return nil, err
	}
	if err := s.loadResources(ctx, data); err != nil {
		return nil, err
	}
	if err := s.loadDrills(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *CatalogStore) loadItems(ctx context.Context, data *factory.GameData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT key, type, localized_name FROM items ORDER BY key`)
	if err != nil {
		return fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item factory.Item
		var name sql.NullString
		if err := rows.Scan(&item.Key, &item.Type, &name); err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}
		if item.LocalizedName, err = unmarshalName(name); err != nil {
			return fmt.Errorf("decoding name for item %s: %w", item.Key, err)
		}
		data.Items = append(data.Items, item)
	}
	return rows.Err()
}

func (s *CatalogStore) loadRecipes(ctx context.Context, data *factory.GameData) error {
	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return err
	}
	results, err := s.loadResults(ctx, "recipe_results", "recipe_key")
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, energy_required, category, allow_productivity, localized_name
		FROM recipes ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("querying recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r factory.Recipe
		var name sql.NullString
		if err := rows.Scan(&r.Key, &r.EnergyRequired, &r.Category, &r.AllowProductivity, &name); err != nil {
			return fmt.Errorf("scanning recipe: %w", err)
		}
		if r.LocalizedName, err = unmarshalName(name); err != nil {
			return fmt.Errorf("decoding name for recipe %s: %w", r.Key, err)
		}
		r.Ingredients = ingredients[r.Key]
		r.Results = results[r.Key]
		data.Recipes = append(data.Recipes, r)
	}
	return rows.Err()
}

func (s *CatalogStore) loadIngredients(ctx context.Context) (map[string][]factory.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recipe_key, name, amount FROM recipe_ingredients ORDER BY recipe_key, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying ingredients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byRecipe := make(map[string][]factory.Ingredient)
	for rows.Next() {
		var key string
		var ing factory.Ingredient
		if err := rows.Scan(&key, &ing.Name, &ing.Amount); err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		byRecipe[key] = append(byRecipe[key], ing)
	}
	return byRecipe, rows.Err()
}

func (s *CatalogStore) loadResults(ctx context.Context, table, ownerCol string) (map[string][]factory.Result, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, name, amount, amount_min, amount_max, probability, ignored_by_productivity, extra_count_fraction
		FROM %s ORDER BY %s, position
	`, ownerCol, table, ownerCol))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	byOwner := make(map[string][]factory.Result)
	for rows.Next() {
		var owner string
		var res factory.Result
		var amount, probability sql.NullFloat64
		if err := rows.Scan(&owner, &res.Name, &amount, &res.AmountMin, &res.AmountMax,
			&probability, &res.IgnoredByProductivity, &res.ExtraCountFraction); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		if amount.Valid {
			v := amount.Float64
			res.Amount = &v
		}
		if probability.Valid {
			v := probability.Float64
			res.Probability = &v
		}
		byOwner[owner] = append(byOwner[owner], res)
	}
	return byOwner, rows.Err()
}

func (s *CatalogStore) loadMachines(ctx context.Context, data *factory.GameData) error {
	categories, err := s.loadCategories(ctx, "machine_categories", "machine_key")
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, module_slots, crafting_speed, prod_bonus FROM crafting_machines ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("querying machines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m factory.CraftingMachine
		if err := rows.Scan(&m.Key, &m.ModuleSlots, &m.CraftingSpeed, &m.ProdBonus); err != nil {
			return fmt.Errorf("scanning machine: %w", err)
		}
		m.CraftingCategories = categories[m.Key]
		data.CraftingMachines = append(data.CraftingMachines, m)
	}
	return rows.Err()
}

func (s *CatalogStore) loadResources(ctx context.Context, data *factory.GameData) error {
	results, err := s.loadResults(ctx, "resource_results", "resource_key")
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, mining_time, category, required_fluid, fluid_amount FROM resources ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("querying resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r factory.Resource
		var category, fluid sql.NullString
		if err := rows.Scan(&r.Key, &r.MiningTime, &category, &fluid, &r.FluidAmount); err != nil {
			return fmt.Errorf("scanning resource: %w", err)
		}
		r.Category = category.String
		r.RequiredFluid = fluid.String
		r.Results = results[r.Key]
		data.Resources = append(data.Resources, r)
	}
	return rows.Err()
}

func (s *CatalogStore) loadDrills(ctx context.Context, data *factory.GameData) error {
	categories, err := s.loadCategories(ctx, "drill_categories", "drill_key")
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, module_slots, mining_speed FROM mining_drills ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("querying drills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d factory.MiningDrill
		if err := rows.Scan(&d.Key, &d.ModuleSlots, &d.MiningSpeed); err != nil {
			return fmt.Errorf("scanning drill: %w", err)
		}
		d.ResourceCategories = categories[d.Key]
		data.MiningDrills = append(data.MiningDrills, d)
	}
	return rows.Err()
}

func (s *CatalogStore) loadCategories(ctx context.Context, table, ownerCol string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, category FROM %s ORDER BY %s, category`, ownerCol, table, ownerCol))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	byOwner := make(map[string][]string)
	for rows.Next() {
		var owner, category string
		if err := rows.Scan(&owner, &category); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		byOwner[owner] = append(byOwner[owner], category)
	}
	return byOwner, rows.Err()
}

// CountRecipes returns the number of stored recipes.
func (s *CatalogStore) CountRecipes(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return count, nil
}

func marshalName(name map[string]string) (any, error) {
	if name == nil {
		return nil, nil
	}
	b, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalName(raw sql.NullString) (map[string]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var name map[string]string
	if err := json.Unmarshal([]byte(raw.String), &name); err != nil {
		return nil, err
	}
	return name, nil
}
