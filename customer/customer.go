package customer

import (
	"context"
	"time"
)

// DocumentType is the _type every customer document carries in the document store
const DocumentType = "customer"

// MetadataExternalAuthID is the metadata key under which the external auth user id is attached to payments customers
const MetadataExternalAuthID = "clerkUserId"

// Record describes the canonical customer document
type Record struct {
	ID               string     `json:"_id" gorm:"primaryKey"`
	Type             string     `json:"_type" gorm:"not null"`
	Email            string     `json:"email" gorm:"not null;index"`
	Name             string     `json:"name"`
	ExternalAuthID   string     `json:"clerkUserId"`
	StripeCustomerID string     `json:"stripeCustomerId,omitempty" gorm:"index"`
	Created          time.Time  `json:"createdAt" gorm:"column:created_at;not null"`
	Updated          *time.Time `json:"updatedAt,omitempty" gorm:"column:updated_at"`
}

// TableName pins the table name for gorm
func (Record) TableName() string {
	return "customers"
}

// Patch is the set of fields overwritten on an existing Record when its payments side is re-resolved
type Patch struct {
	StripeCustomerID string
	ExternalAuthID   string
	Name             string
	UpdatedAt        time.Time
}

// Result holds the linked identifiers of a reconciled customer
type Result struct {
	StripeCustomerID string `json:"stripeCustomerId"`
	SanityCustomerID string `json:"sanityCustomerId"`
}

// PaymentsCustomer is the subset of a payments provider customer the reconciler cares about
type PaymentsCustomer struct {
	ID    string
	Email string
	Name  string
}

// NewPaymentsCustomer carries the attributes of a payments customer to be created
type NewPaymentsCustomer struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Payments is the payments provider's customer API.
// Retrieve must return an error wrapping ErrPaymentsCustomerNotFound when the id no longer resolves.
type Payments interface {
	Retrieve(ctx context.Context, id string) (*PaymentsCustomer, error)
	ListByEmail(ctx context.Context, email string, limit int64) ([]PaymentsCustomer, error)
	Create(ctx context.Context, params NewPaymentsCustomer) (*PaymentsCustomer, error)
}

// Store is the document store holding customer Records.
// FindByEmail returns nil, nil when no Record exists for the email.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Record, error)
	Patch(ctx context.Context, id string, patch Patch) error
	Create(ctx context.Context, rec *Record) (*Record, error)
}

// SyncedEvent describes a reconciliation that wrote to at least one system
type SyncedEvent struct {
	Email                   string
	StripeCustomerID        string
	SanityCustomerID        string
	CreatedPaymentsCustomer bool
	CreatedDocument         bool
}

// Events receives notifications about completed reconciliations
type Events interface {
	PublishSynced(ctx context.Context, ev SyncedEvent) error
}
