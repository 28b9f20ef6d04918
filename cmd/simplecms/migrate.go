package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-cms/pkg/simplecms/config"
	"github.com/tendant/simple-cms/pkg/simplecms/contenttype"
	"github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
)

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres tables for the registry and every content type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.IsPostgres() {
				return errors.New("migrate needs a postgres:// DATABASE_URL")
			}

			typeIDs, err := typeIDs(cfg)
			if err != nil {
				return err
			}

			pool, err := config.OpenPostgres(cmd.Context(), cfg.DatabaseURL, cfg.DBSchema)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.Migrate(cmd.Context(), pool, typeIDs...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d content types\n", len(typeIDs))
			return nil
		},
	}
}

// NewSchemaCommand creates the schema command
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL migrate would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			typeIDs, err := typeIDs(cfg)
			if err != nil {
				return err
			}
			stmts, err := postgres.Statements(typeIDs...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(stmts, ";\n\n")+";")
			return nil
		},
	}
}

func typeIDs(cfg *config.ServerConfig) ([]string, error) {
	if cfg.ContentTypesDir == "" {
		return nil, nil
	}
	types, err := contenttype.LoadDir(cfg.ContentTypesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load content types: %w", err)
	}
	ids := make([]string, len(types))
	for i, ct := range types {
		ids[i] = ct.ID
	}
	return ids, nil
}
