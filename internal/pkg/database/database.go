package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/hrms-go/backend/internal/model"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		// 使用 github.com/glebarez/sqlite 驱动
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate 迁移全部业务表
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ContractTemplate{}, &model.TemplateField{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.ContractInstance{}, &model.ContractAuditLog{}); err != nil {
		return err
	}
	return db.AutoMigrate(&model.Employee{}, &model.EmployeeOnboardingDocument{})
}
