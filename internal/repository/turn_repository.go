package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"gopherai-ytchat/internal/model"
)

// TurnRepository is the append-only chat turn archive.
type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Migrate() error {
	if err := r.db.AutoMigrate(&model.TurnRecord{}); err != nil {
		return fmt.Errorf("migrate chat_turns failed: %w", err)
	}
	return nil
}

func (r *TurnRepository) Create(ctx context.Context, record *model.TurnRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("create chat turn failed: %w", err)
	}
	return nil
}

func (r *TurnRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]model.TurnRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var records []model.TurnRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list chat turns failed: %w", err)
	}
	return records, nil
}
