package db

import (
	"context"
	"fmt"
	"log"

	"chirp/config"
	"chirp/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.DBName,
	)
}

// ConnectDB opens the database described by AppConfig and stores it in ORM.
func ConnectDB() (err error) {
	if ORM != nil {
		log.Println("ORM is already initialized")
		return nil
	}
	if config.AppConfig == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	orm, err := Open(config.AppConfig)
	if err != nil {
		return err
	}
	ORM = orm
	return nil
}

// Open connects to the master (and replicas, if any) and runs migrations.
func Open(conf *config.ConfigSchema) (*gorm.DB, error) {
	var (
		primary  gorm.Dialector
		replicas []gorm.Dialector
	)

	switch conf.Databases.Driver {
	case "postgres":
		if conf.Databases.Master.Host == "" {
			return nil, fmt.Errorf("master database configuration is missing")
		}
		primary = postgres.Open(dsnFromConfig(conf.Databases.Master))
		replicas = make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
		for _, r := range conf.Databases.Replicas {
			replicas = append(replicas, postgres.Open(dsnFromConfig(r)))
		}
	case "sqlite":
		primary = sqlite.Open(conf.Databases.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", conf.Databases.Driver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if conf.Debug() {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	orm, err := gorm.Open(primary, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if len(replicas) > 0 {
		err = orm.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("failed to register replicas: %w", err)
		}
	}

	if err := Migrate(orm); err != nil {
		return nil, err
	}
	return orm, nil
}

func Migrate(orm *gorm.DB) error {
	if err := orm.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// ReadOnly returns a session routed to the replicas
func ReadOnly(ctx context.Context, orm *gorm.DB) *gorm.DB {
	return orm.WithContext(ctx).Clauses(dbresolver.Read)
}

// Write returns a session routed to the master
func Write(ctx context.Context, orm *gorm.DB) *gorm.DB {
	return orm.WithContext(ctx).Clauses(dbresolver.Write)
}
