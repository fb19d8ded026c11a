package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/pkg/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			// InitDB 内部已执行 AutoMigrate
			db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("migrate %s database: %w", cfg.Database.Type, err)
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			color.Green("数据库迁移完成 (%s)", cfg.Database.Type)
			return nil
		},
	}
}
