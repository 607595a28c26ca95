package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ Store = &GormStore{}

// GormStore keeps customer Records in a relational database
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore returns a Store backed by db
func NewGormStore(logger *zap.Logger, db *gorm.DB) (*GormStore, error) {
	if logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if db == nil {
		return nil, fmt.Errorf("nil DB is invalid")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize customer.GormStore")
	}
	return &GormStore{
		db:     db,
		logger: logger,
	}, nil
}

// FindByEmail will try to return the customer document by email address
func (s *GormStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	var rec Record

	result := s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at asc").
		First(&rec)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		s.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get customer by email")
	}

	return &rec, nil
}

// Patch overwrites the payments id, external auth id, name and updatedAt of an existing document
func (s *GormStore) Patch(ctx context.Context, id string, patch Patch) error {
	result := s.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_customer_id": patch.StripeCustomerID,
			"external_auth_id":   patch.ExternalAuthID,
			"name":               patch.Name,
			"updated_at":         patch.UpdatedAt,
		})

	if result.Error != nil {
		s.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot patch customer")
	}
	if result.RowsAffected == 0 {
		return extErrors.Wrapf(ErrRecordNotFound, "Cannot patch customer %s", id)
	}

	return nil
}

// Create will insert a new customer document and assign its id
func (s *GormStore) Create(ctx context.Context, rec *Record) (*Record, error) {
	doc := *rec
	doc.ID = uuid.New().String()
	doc.Type = DocumentType

	result := s.db.WithContext(ctx).Create(&doc)
	if result.Error != nil {
		s.logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot create customer")
	}

	return &doc, nil
}
