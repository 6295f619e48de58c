package models

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Schema tooling, run with GENERATE_MODELS=true or GENERATE_COLUMN_REPORT=true.

GenerateModels migrates every table below into the configured schema, prints
the column report and writes typed query helpers to ./generated.

The column report lists database columns that no model field maps to:

	--- table project_images ---
	  - legacy_url
	total unmapped columns: 1
*/

// All returns one zero value of every persisted model, parents first.
func All() []any {
	return []any{
		&Project{},
		&ProjectDomain{},
		&ProjectImage{},
		&ProjectImageTag{},
		&ProjectAsset{},
		&UserRole{},
	}
}

func GenerateModels(db *gorm.DB, schema string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	db = db.Session(&gorm.Session{
		Logger:                 db.Logger.LogMode(logger.Info),
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	if schema != "" {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema)).Error; err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
	}

	log.Info().Str("schema", schema).Msg("migrating models")
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}

	if _, err := GenerateColumnMismatchReport(db); err != nil {
		return err
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()

	log.Info().Msg("model generation complete")
	return nil
}

// GenerateColumnMismatchReport prints, per table, the columns the database has
// but the model does not map, and returns them keyed by table.
func GenerateColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)
	total := 0

	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		columns, err := tableColumns(db, table)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			fmt.Printf("--- table %s ---\n  (not created yet)\n", table)
			continue
		}

		unmapped := findColumnMismatches(columns, stmt.Schema.DBNames)
		fmt.Printf("--- table %s ---\n", table)
		for _, col := range unmapped {
			fmt.Printf("  - %s\n", col)
		}
		report[table] = unmapped
		total += len(unmapped)
	}

	fmt.Printf("total unmapped columns: %d\n", total)
	return report, nil
}

func tableColumns(db *gorm.DB, table string) ([]string, error) {
	var columns []string
	err := db.Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position`, table).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return columns, nil
}

func findColumnMismatches(dbColumns, modelColumns []string) []string {
	var out []string
	for _, col := range dbColumns {
		if !slices.Contains(modelColumns, col) {
			out = append(out, col)
		}
	}
	return out
}
