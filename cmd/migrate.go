package cmd

import (
	"context"
	"fmt"

	"github.com/jmehdipour/group-load/migrations"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the delivery audit tables in every configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, err := loadBase()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		st, err := rt.openStores()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if st.mysql == nil && st.clickhouse == nil {
			return fmt.Errorf("no store configured: set mysql.dsn and/or clickhouse.dsn")
		}

		if st.mysql != nil {
			if err := applySchema(cmd.Context(), st.mysql, "mysql"); err != nil {
				return err
			}
			rt.log.Info("migration complete", zap.String("store", "mysql"))
		}
		if st.clickhouse != nil {
			if err := applySchema(cmd.Context(), st.clickhouse, "clickhouse"); err != nil {
				return err
			}
			rt.log.Info("migration complete", zap.String("store", "clickhouse"))
		}

		fmt.Fprintln(cmd.OutOrStdout(), ">> Migration complete ✅")
		return nil
	},
}

func applySchema(ctx context.Context, dbx *sqlx.DB, dir string) error {
	stmts, err := migrations.Statements(dir)
	if err != nil {
		return fmt.Errorf("read %s migrations: %w", dir, err)
	}
	for i, stmt := range stmts {
		if _, err := dbx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %s migration statement %d: %w", dir, i+1, err)
		}
	}
	return nil
}
