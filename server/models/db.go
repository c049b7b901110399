package models

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/panic-app/panic-server/server/logger"
	"github.com/panic-app/panic-server/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const DB_NAME = "panic.db"

var logg = logger.NewLogger()
var db *gorm.DB

var allTables = []interface{}{
	&JobStatus{}, &Job{},
	&User{}, &TrustedContact{},
	&Incident{}, &IncidentPhoto{},
	&GlobalConfig{},
}

// AutoMigrate auto-migrates the db schema and inserts seed data
func AutoMigrate(passPhrase string, dbRootDir string) error {
	err := openDB(passPhrase, dbRootDir)
	if err != nil {
		return err
	}

	err = db.AutoMigrate(allTables...)
	if err != nil {
		return err
	}

	populateDBWithSeedData()

	return nil
}

var testDbCounter int

// InitializeTestDb swaps the package db for a fresh in-memory one.
// Only meant to be called from tests.
func InitializeTestDb() {
	var err error

	// A named shared-cache db keeps every pooled connection on the same
	// in-memory database, while still isolating test runs from each other.
	testDbCounter++
	dsn := fmt.Sprintf("file:testdb%v?mode=memory&cache=shared", testDbCounter)

	db, err = gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		logg.Panicf("failed to connect test database: %v", err)
	}

	if err = db.AutoMigrate(allTables...); err != nil {
		logg.Panicf("failed to migrate test database: %v", err)
	}

	populateDBWithSeedData()
}

// DbFilePath returns the path of the sqlite file under dbRootDir,
// creating the enclosing directory if needed.
func DbFilePath(dbRootDir string) (string, error) {
	dbDir := filepath.Join(dbRootDir, "db")

	err := utils.CreateDirIfNotExist(dbDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(dbDir, DB_NAME), nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func openDB(passPhrase string, dbRootDir string) error {
	dbDSNVal, err := dbDSN(passPhrase, dbRootDir)
	if err != nil {
		return fmt.Errorf("failed to set sqlite DSN: %v", err)
	}

	db, err = gorm.Open(sqliteEncrypt.Open(dbDSNVal), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %v", err)
	}

	return nil
}

func populateDBWithSeedData() {
	if err := db.First(&JobStatus{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'JobStatus'")
		db.Create(&[]JobStatus{
			{Name: ENQUEUED_JOB}, {Name: IN_PROGRESS_JOB},
			{Name: SUCCESSFUL_JOB}, {Name: DEAD_JOB},
		})
	}

	if err := db.First(&GlobalConfig{}).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		logg.Info("Inserting seed data into 'GlobalConfig'")
		db.Create(&[]GlobalConfig{
			{Parameter: DEFAULT_COUNTRY_CODE_PARAM, Value: "+52", Description: "Country code prefixed to local phone numbers", Group: "contacts"},
		})
	}
}

func dbDSN(passPhrase string, dbRootDir string) (string, error) {
	dbFilePath, err := DbFilePath(dbRootDir)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbFilePath,
		passPhrase,
	), nil
}
