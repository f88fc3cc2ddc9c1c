package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/stratafi/vault-engine/internal/metrics"
)

// RequestRecord is the persisted row shape. Amounts are stored as
// decimal strings so a corrupt value is caught at decode time instead
// of silently misparsed.
type RequestRecord struct {
	ID            string `gorm:"primaryKey"`
	SchemaVersion int
	Account       string `gorm:"index:idx_requests_account_vault"`
	VaultID       string `gorm:"index:idx_requests_account_vault"`
	Amount        string
	CreatedAt     time.Time
	UnlockAt      time.Time
	Status        string `gorm:"index"`
}

func (RequestRecord) TableName() string { return "withdrawal_requests" }

func encodeRecord(req *WithdrawalRequest) *RequestRecord {
	return &RequestRecord{
		ID:            req.ID,
		SchemaVersion: SchemaVersion,
		Account:       req.Account,
		VaultID:       req.VaultID,
		Amount:        req.LpAmount.String(),
		CreatedAt:     req.CreatedAt,
		UnlockAt:      req.UnlockAt,
		Status:        string(req.Status),
	}
}

func decodeRecord(rec *RequestRecord) (*WithdrawalRequest, error) {
	if rec.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", rec.SchemaVersion)
	}
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("unreadable amount %q: %w", rec.Amount, err)
	}
	switch RequestStatus(rec.Status) {
	case StatusPending, StatusUnlockable, StatusClaimed, StatusCancelled:
	default:
		return nil, fmt.Errorf("unknown status %q", rec.Status)
	}
	return &WithdrawalRequest{
		ID:        rec.ID,
		Account:   rec.Account,
		VaultID:   rec.VaultID,
		LpAmount:  amount,
		CreatedAt: rec.CreatedAt,
		UnlockAt:  rec.UnlockAt,
		Status:    RequestStatus(rec.Status),
	}, nil
}

// GormStore persists withdrawal requests in postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateActive inserts a new record unless a readable active one holds
// the slot. Rows that no longer decode are dropped here instead of
// counted: an unreadable record can never be claimed or cancelled
// through the API, so letting it hold the slot would block withdrawals
// forever. The partial unique index on (account, vault_id) for active
// statuses backstops concurrent creates from separate processes.
func (s *GormStore) CreateActive(ctx context.Context, req *WithdrawalRequest) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var recs []RequestRecord
	err := tx.
		Where("account = ? AND vault_id = ? AND status IN ?",
			req.Account, req.VaultID, []string{string(StatusPending), string(StatusUnlockable)}).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	active, corrupt := firstReadable(recs)
	if active != nil {
		tx.Rollback()
		return ErrActiveExists
	}
	if len(corrupt) > 0 {
		if err := tx.Where("id IN ?", corrupt).Delete(&RequestRecord{}).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Create(encodeRecord(req)).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrActiveExists
		}
		return err
	}

	return tx.Commit().Error
}

func (s *GormStore) Put(ctx context.Context, req *WithdrawalRequest) error {
	return s.db.WithContext(ctx).Save(encodeRecord(req)).Error
}

// firstReadable decodes candidate active rows, newest first, returning
// the first readable one and the IDs of rows that failed to decode.
// Both read and write paths run through it so corruption degrades to
// "no active request" everywhere: a stale pointer to an already-settled
// withdrawal is cheaper to lose than a permanently blocked slot.
func firstReadable(recs []RequestRecord) (*WithdrawalRequest, []string) {
	var first *WithdrawalRequest
	var corrupt []string

	for i := range recs {
		req, err := decodeRecord(&recs[i])
		if err != nil {
			logrus.Warnf("[STORE] skipping corrupt withdrawal record %s: %s", recs[i].ID, err)
			metrics.CorruptRecordsTotal.Inc()
			corrupt = append(corrupt, recs[i].ID)
			continue
		}
		if first == nil {
			first = req
		}
	}

	return first, corrupt
}

// FindActive returns the newest readable active record for the key.
func (s *GormStore) FindActive(ctx context.Context, account, vaultID string) (*WithdrawalRequest, error) {
	var recs []RequestRecord
	err := s.db.WithContext(ctx).
		Where("account = ? AND vault_id = ? AND status IN ?",
			account, vaultID, []string{string(StatusPending), string(StatusUnlockable)}).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	req, _ := firstReadable(recs)
	return req, nil
}

func (s *GormStore) Remove(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&RequestRecord{}).Error
}
