package config

import (
	"fmt"
	model "pickem/repository"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE pickem.round_status AS ENUM ('draft', 'active', 'locked', 'completed')`,
	`CREATE TYPE pickem.pick_type AS ENUM ('single', 'multiple')`,
	`CREATE TYPE pickem.reminder_policy AS ENUM ('none', 'daily', 'before_lock')`,
}

func InitDB(host string, port string, user string, password string, dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "pickem.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS pickem`)
	if x.Error != nil {
		return nil, x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return nil, x.Error
		}
	}

	err = db.AutoMigrate(
		&model.Season{},
		&model.User{},
		&model.SeasonUser{},
		&model.Round{},
		&model.Team{},
		&model.AccessToken{},
		&model.Pick{},
		&model.PickItem{},
		&model.Score{},
		&model.ReminderLog{},
		&model.Settings{},
	)

	if err != nil {
		return nil, err
	}
	return db, nil
}
