package external

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zllovesuki/custsync/customer"

	extErrors "github.com/pkg/errors"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"
)

var _ customer.Payments = &StripePayments{}

// NewStripeClient returns a Stripe API client. A nil backends uses Stripe's production endpoints.
func NewStripeClient(key string, backends *stripe.Backends) (*client.API, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("empty Stripe key is invalid")
	}
	sc := &client.API{}
	sc.Init(key, backends)
	return sc, nil
}

// StripePayments implements customer.Payments over the Stripe customers API
type StripePayments struct {
	client *client.API
	logger *zap.Logger
}

// NewStripePayments wraps sc as the payments collaborator
func NewStripePayments(logger *zap.Logger, sc *client.API) (*StripePayments, error) {
	if logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if sc == nil {
		return nil, fmt.Errorf("nil StripeClient is invalid")
	}
	return &StripePayments{
		client: sc,
		logger: logger,
	}, nil
}

// Retrieve fetches a customer by id. Unknown and deleted customers yield customer.ErrPaymentsCustomerNotFound.
func (s *StripePayments) Retrieve(ctx context.Context, id string) (*customer.PaymentsCustomer, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{
			Context: ctx,
		},
	}
	c, err := s.client.Customers.Get(id, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, extErrors.Wrapf(customer.ErrPaymentsCustomerNotFound, "Stripe customer %s", id)
		}
		return nil, extErrors.Wrap(err, "Cannot retrieve Customer")
	}
	if c.Deleted {
		return nil, extErrors.Wrapf(customer.ErrPaymentsCustomerNotFound, "Stripe customer %s is deleted", id)
	}
	return fromStripeCustomer(c), nil
}

// ListByEmail returns at most limit customers with the given email, in the order Stripe returns them
func (s *StripePayments) ListByEmail(ctx context.Context, email string, limit int64) ([]customer.PaymentsCustomer, error) {
	if limit < 1 {
		limit = 1
	}
	params := &stripe.CustomerListParams{
		ListParams: stripe.ListParams{
			Context: ctx,
			Limit:   stripe.Int64(limit),
			Single:  true,
		},
		Email: stripe.String(email),
	}

	results := make([]customer.PaymentsCustomer, 0, limit)
	iter := s.client.Customers.List(params)
	for iter.Next() {
		results = append(results, *fromStripeCustomer(iter.Customer()))
		if int64(len(results)) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, extErrors.Wrap(err, "Cannot list Customers by email")
	}
	return results, nil
}

// Create will create a new customer profile in Stripe
func (s *StripePayments) Create(ctx context.Context, p customer.NewPaymentsCustomer) (*customer.PaymentsCustomer, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{
			Context: ctx,
		},
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	c, err := s.client.Customers.New(params)
	if err != nil {
		s.logger.Error("Stripe returned error",
			zap.Error(err),
		)
		return nil, extErrors.Wrap(err, "Cannot create a new Customer")
	}
	return fromStripeCustomer(c), nil
}

func isResourceMissing(err error) bool {
	stripeErr, ok := err.(*stripe.Error)
	if !ok {
		return false
	}
	return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound
}

func fromStripeCustomer(c *stripe.Customer) *customer.PaymentsCustomer {
	return &customer.PaymentsCustomer{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
	}
}
