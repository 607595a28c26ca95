package broker

import (
	"github.com/zllovesuki/custsync/customer"

	"google.golang.org/protobuf/types/known/structpb"
)

// Publisher defines the interface for publishing customer events via message broker
type Publisher interface {
	customer.Events
	Close()
}

const (
	customerEventsExchange string = "customer_events"
	syncedRoutingKey              = "customer.synced"
)

// encodeSynced converts ev into a protobuf Struct for the wire
func encodeSynced(ev customer.SyncedEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"email":                   ev.Email,
		"stripeCustomerId":        ev.StripeCustomerID,
		"sanityCustomerId":        ev.SanityCustomerID,
		"createdPaymentsCustomer": ev.CreatedPaymentsCustomer,
		"createdDocument":         ev.CreatedDocument,
	})
}

// DecodeSynced is the inverse of encodeSynced, for consumers of the exchange
func DecodeSynced(s *structpb.Struct) customer.SyncedEvent {
	f := s.GetFields()
	return customer.SyncedEvent{
		Email:                   f["email"].GetStringValue(),
		StripeCustomerID:        f["stripeCustomerId"].GetStringValue(),
		SanityCustomerID:        f["sanityCustomerId"].GetStringValue(),
		CreatedPaymentsCustomer: f["createdPaymentsCustomer"].GetBoolValue(),
		CreatedDocument:         f["createdDocument"].GetBoolValue(),
	}
}
