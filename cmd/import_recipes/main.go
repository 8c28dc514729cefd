package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"wasfa/internal/config"
	"wasfa/internal/db"
	"wasfa/models"
)

// seedRecipe is the on-disk shape of one imported recipe.
type seedRecipe struct {
	Title        models.LocalizedText `json:"title"`
	Ingredients  []seedIngredient     `json:"ingredients"`
	Instructions models.LocalizedText `json:"instructions"`
	CookTime     int                  `json:"cookTime"`
	Difficulty   string               `json:"difficulty"`
	Mood         string               `json:"mood"`
	Tags         []string             `json:"tags"`
}

type seedIngredient struct {
	Name     models.LocalizedText `json:"name"`
	Quantity string               `json:"quantity"`
}

func main() {
	seedPath := "recipes.json"
	if len(os.Args) > 1 {
		seedPath = os.Args[1]
	}

	if err := run(seedPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(seedPath string) error {
	if strings.TrimSpace(seedPath) == "" {
		return fmt.Errorf("seed path must not be empty")
	}

	if _, err := os.Stat(seedPath); err != nil {
		return fmt.Errorf("locate seed file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readSeedFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	ownerID, err := resolveImportOwner(database)
	if err != nil {
		return fmt.Errorf("resolve owner: %w", err)
	}

	imported, err := importRecipes(database, records, ownerID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Imported %d recipes from %s\n", imported, filepath.Base(seedPath))
	return nil
}

// importRecipes upserts each record by its English title. Existing
// recipes keep their identity (and reviews) while their content and
// ingredient list are replaced.
func importRecipes(database *gorm.DB, records []seedRecipe, ownerID uint) (int, error) {
	imported := 0
	for idx, record := range records {
		if err := validateSeed(record); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, record.Title.EN, err)
		}

		if err := database.Transaction(func(tx *gorm.DB) error {
			recipe := models.Recipe{
				Title:        record.Title,
				Instructions: record.Instructions,
				CookTime:     record.CookTime,
				Difficulty:   record.Difficulty,
				Mood:         record.Mood,
				Tags:         record.Tags,
				UserID:       ownerID,
			}

			var existing models.Recipe
			err := tx.Where("title_en = ?", record.Title.EN).First(&existing).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("find recipe by title %q: %w", record.Title.EN, err)
			}

			if existing.ID != 0 {
				recipe.ID = existing.ID
				recipe.UserID = existing.UserID
				recipe.CreatedAt = existing.CreatedAt
				if err := tx.Unscoped().Where("recipe_id = ?", existing.ID).Delete(&models.Ingredient{}).Error; err != nil {
					return fmt.Errorf("clear ingredients for %q: %w", record.Title.EN, err)
				}
				if err := tx.Save(&recipe).Error; err != nil {
					return fmt.Errorf("update recipe %q: %w", record.Title.EN, err)
				}
			} else {
				if err := tx.Create(&recipe).Error; err != nil {
					return fmt.Errorf("create recipe %q: %w", record.Title.EN, err)
				}
			}

			for _, ing := range record.Ingredients {
				row := models.Ingredient{
					RecipeID: recipe.ID,
					Name:     ing.Name,
					Quantity: ing.Quantity,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("create ingredient %q for %q: %w", ing.Name.EN, record.Title.EN, err)
				}
			}

			return nil
		}); err != nil {
			return imported, fmt.Errorf("record %d (%s): %w", idx+1, record.Title.EN, err)
		}
		imported++
	}
	return imported, nil
}

func validateSeed(record seedRecipe) error {
	if !record.Title.Complete() {
		return errors.New("title must be provided in every supported language")
	}
	if len(record.Ingredients) == 0 {
		return errors.New("at least one ingredient is required")
	}
	for _, ing := range record.Ingredients {
		if !ing.Name.Complete() {
			return fmt.Errorf("ingredient %q must be named in every supported language", ing.Name.EN)
		}
	}
	if record.Mood != "" && !models.ValidMood(record.Mood) {
		return fmt.Errorf("unknown mood %q", record.Mood)
	}
	if record.Difficulty != "" && !models.ValidDifficulty(record.Difficulty) {
		return fmt.Errorf("unknown difficulty %q", record.Difficulty)
	}
	if record.CookTime < 0 {
		return errors.New("cook time must not be negative")
	}
	return nil
}

// resolveImportOwner picks the account that imported recipes belong to:
// the user named by WASFA_IMPORT_OWNER_EMAIL, or the first admin.
func resolveImportOwner(database *gorm.DB) (uint, error) {
	if database == nil {
		return 0, fmt.Errorf("database handle is nil")
	}

	ctx := context.Background()
	email := strings.TrimSpace(os.Getenv("WASFA_IMPORT_OWNER_EMAIL"))
	if email != "" {
		var user models.User
		if err := database.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
			return 0, fmt.Errorf("find owner by email %q: %w", strings.ToLower(email), err)
		}
		return user.ID, nil
	}

	var user models.User
	err := database.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id asc").First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = database.WithContext(ctx).Order("id asc").First(&user).Error
	}
	if err != nil {
		return 0, fmt.Errorf("find default owner: %w", err)
	}
	return user.ID, nil
}

func readSeedFile(path string) ([]seedRecipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []seedRecipe
	if err := json.Unmarshal(raw, &records); err != nil {
		// Some exports wrap the list in a {"recipes": [...]} object.
		var wrapped struct {
			Recipes []seedRecipe `json:"recipes"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Recipes == nil {
			return nil, errors.New("seed file must contain a JSON array of recipes")
		}
		records = wrapped.Recipes
	}

	if len(records) == 0 {
		return nil, errors.New("seed file is empty")
	}
	return records, nil
}
