package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/franciscosanchezn/gin-foodgram-api/internal/config"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/database"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/models"
	"github.com/franciscosanchezn/gin-foodgram-api/internal/services"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
	flag.Parse()

	log.SetFormatter(&log.JSONFormatter{})
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.InitDatabase(database.ConfigFrom(conf))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	ingredients, err := readIngredients(f)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	inserted, err := services.NewIngredientService(db).ImportIngredients(context.Background(), ingredients)
	if err != nil {
		log.Fatalf("Failed to import ingredients: %v", err)
	}

	log.WithFields(log.Fields{
		"file":     *file,
		"rows":     len(ingredients),
		"inserted": inserted,
		"skipped":  int64(len(ingredients)) - inserted,
	}).Info("Ingredients loaded")
}

// readIngredients parses name,measurement_unit rows, skipping blank names
func readIngredients(r io.Reader) ([]models.Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var ingredients []models.Ingredient
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return ingredients, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		ingredients = append(ingredients, models.Ingredient{
			Name:            name,
			MeasurementUnit: strings.TrimSpace(record[1]),
		})
	}
}
