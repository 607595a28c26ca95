package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zllovesuki/custsync/auth"
	resp "github.com/zllovesuki/custsync/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// Syncer is the operation behind the sync route
type Syncer interface {
	Reconcile(ctx context.Context, email, name, externalAuthID string) (*Result, error)
}

// Options contains the configuration for Service router
type Options struct {
	Auth   *auth.Auth
	Syncer Syncer
	Logger *zap.Logger
}

// Service is the customer API router
type Service struct {
	Options
}

// SyncRequest is the body of a sync request. Name falls back to the token's name claim.
type SyncRequest struct {
	Name string `json:"name"`
}

type syncInput struct {
	Email          string `validate:"required"`
	Name           string
	ExternalAuthID string `validate:"required"`
}

// NewService will create an instance of the customer API router
func NewService(option Options) (*Service, error) {
	if option.Auth == nil {
		return nil, fmt.Errorf("nil Auth is invalid")
	}
	if option.Syncer == nil {
		return nil, fmt.Errorf("nil Syncer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		Options: option,
	}, nil
}

func (s *Service) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		s.Logger.Error("Context has no Claims")
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}

	in := syncInput{
		Email:          claims.Email,
		Name:           req.Name,
		ExternalAuthID: claims.Subject,
	}
	if in.Name == "" {
		in.Name = claims.Name
	}
	if err := validate.Struct(&in); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Token is missing email or subject"))
		return
	}

	logger := s.Logger.With(
		zap.String("email", in.Email),
		zap.String("externalAuthId", in.ExternalAuthID),
	)

	result, err := s.Syncer.Reconcile(ctx, in.Email, in.Name, in.ExternalAuthID)
	if err != nil {
		logger.Error("Unable to reconcile customer",
			zap.Error(err),
		)
		if IsUpstream(err) {
			resp.WriteError(w, r, resp.ErrBadGateway().AddMessages("Unable to sync customer"))
			return
		}
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	resp.WriteResponse(w, r, result)
}

// Router will return the routes under customer API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.Auth.Middleware())
	r.Post("/sync", s.sync)

	return r
}
