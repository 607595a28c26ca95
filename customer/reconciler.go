package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ReconcilerOptions contains the collaborators of a Reconciler
type ReconcilerOptions struct {
	Payments Payments
	Store    Store
	Logger   *zap.Logger

	// Events is optional; nil disables synced notifications
	Events Events
	// Now defaults to time.Now
	Now func() time.Time
}

// Reconciler keeps a customer identity consistent between the payments provider and the document store
type Reconciler struct {
	ReconcilerOptions
}

// NewReconciler returns a Reconciler over the given collaborators
func NewReconciler(option ReconcilerOptions) (*Reconciler, error) {
	if option.Payments == nil {
		return nil, fmt.Errorf("nil Payments is invalid")
	}
	if option.Store == nil {
		return nil, fmt.Errorf("nil Store is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if option.Now == nil {
		option.Now = time.Now
	}
	return &Reconciler{
		ReconcilerOptions: option,
	}, nil
}

// Reconcile ensures exactly one customer exists for email in both systems and returns their identifiers.
// When the stored payments id still resolves nothing is written.
func (r *Reconciler) Reconcile(ctx context.Context, email, name, externalAuthID string) (*Result, error) {
	logger := r.Logger.With(zap.String("email", email))

	existing, err := r.Store.FindByEmail(ctx, email)
	if err != nil {
		return nil, upstream(SystemDocuments, "find by email", err)
	}

	if existing != nil && existing.StripeCustomerID != "" {
		_, err := r.Payments.Retrieve(ctx, existing.StripeCustomerID)
		switch {
		case err == nil:
			return &Result{
				StripeCustomerID: existing.StripeCustomerID,
				SanityCustomerID: existing.ID,
			}, nil
		case errors.Is(err, ErrPaymentsCustomerNotFound):
			logger.Warn("Stored payments customer not found, resolving a new one",
				zap.String("stripeCustomerId", existing.StripeCustomerID),
			)
		default:
			return nil, upstream(SystemPayments, "retrieve customer", err)
		}
	}

	stripeCustomerID, created, err := r.resolvePayments(ctx, email, name, externalAuthID)
	if err != nil {
		return nil, err
	}

	var result *Result
	if existing != nil {
		if err := r.Store.Patch(ctx, existing.ID, Patch{
			StripeCustomerID: stripeCustomerID,
			ExternalAuthID:   externalAuthID,
			Name:             name,
			UpdatedAt:        r.Now().UTC(),
		}); err != nil {
			return nil, upstream(SystemDocuments, "patch customer", err)
		}
		result = &Result{
			StripeCustomerID: stripeCustomerID,
			SanityCustomerID: existing.ID,
		}
	} else {
		rec, err := r.Store.Create(ctx, &Record{
			Type:             DocumentType,
			Email:            email,
			Name:             name,
			ExternalAuthID:   externalAuthID,
			StripeCustomerID: stripeCustomerID,
			Created:          r.Now().UTC(),
		})
		if err != nil {
			return nil, upstream(SystemDocuments, "create customer", err)
		}
		result = &Result{
			StripeCustomerID: stripeCustomerID,
			SanityCustomerID: rec.ID,
		}
	}

	r.notify(ctx, logger, SyncedEvent{
		Email:                   email,
		StripeCustomerID:        result.StripeCustomerID,
		SanityCustomerID:        result.SanityCustomerID,
		CreatedPaymentsCustomer: created,
		CreatedDocument:         existing == nil,
	})

	return result, nil
}

// resolvePayments adopts the first payments customer listed for email, or creates one
func (r *Reconciler) resolvePayments(ctx context.Context, email, name, externalAuthID string) (string, bool, error) {
	matches, err := r.Payments.ListByEmail(ctx, email, 1)
	if err != nil {
		return "", false, upstream(SystemPayments, "list customers", err)
	}
	if len(matches) > 0 {
		return matches[0].ID, false, nil
	}

	c, err := r.Payments.Create(ctx, NewPaymentsCustomer{
		Email: email,
		Name:  name,
		Metadata: map[string]string{
			MetadataExternalAuthID: externalAuthID,
		},
	})
	if err != nil {
		return "", false, upstream(SystemPayments, "create customer", err)
	}
	return c.ID, true, nil
}

func (r *Reconciler) notify(ctx context.Context, logger *zap.Logger, ev SyncedEvent) {
	if r.Events == nil {
		return
	}
	if err := r.Events.PublishSynced(ctx, ev); err != nil {
		logger.Error("Unable to publish customer synced event",
			zap.Error(err),
		)
	}
}
