package main

import (
	"errors"
	"log"

	"github.com/stratafi/vault-engine/internal/app"
	"github.com/stratafi/vault-engine/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	a, err := app.InitApp()
	if err != nil {
		return err
	}
	if !a.Cfg.Postgres.Enabled() {
		return errors.New("POSTGRES_HOST is not set, nothing to migrate")
	}

	dbTx := app.DB.Begin()
	if err := dbTx.AutoMigrate(
		&storage.RequestRecord{},
	); err != nil {
		dbTx.Rollback()
		return err
	}
	// one active request per (account, vault) enforced by the database,
	// not just by the store's read-then-insert; gorm's AutoMigrate cannot
	// express a partial index
	if err := dbTx.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_withdrawal_requests_active_slot
		 ON withdrawal_requests (account, vault_id)
		 WHERE status IN ('pending', 'unlockable')`,
	).Error; err != nil {
		dbTx.Rollback()
		return err
	}
	if err := dbTx.Commit().Error; err != nil {
		return err
	}

	return nil
}
