package cartstate

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/autoimport-storefront/pkg/db/models"
)

// SQLStore keeps state in the cart_states table.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var row models.CartState
	err := s.db.WithContext(ctx).
		Where("state_key = ?", key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Payload), nil
}

// Save upserts the payload for key.
func (s *SQLStore) Save(ctx context.Context, key string, payload []byte) error {
	row := models.CartState{
		StateKey:  key,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}
