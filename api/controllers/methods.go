package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/api/responses"
	"github.com/registra-pos/registra-backend/api/validators"
	methodsvc "github.com/registra-pos/registra-backend/internal/methods"
	"github.com/registra-pos/registra-backend/pkg/db/models"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

// PaymentMethodList returns the active payment method registry.
func PaymentMethodList(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		methods, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]methodResponse, 0, len(methods))
		for i := range methods {
			out = append(out, newMethodResponse(&methods[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentMethodDetail fetches one payment method by id.
func PaymentMethodDetail(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(r, "methodId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMethodResponse(method))
	}
}

// PaymentMethodUpsert creates or updates a payment method and invalidates
// the cached registry.
func PaymentMethodUpsert(svc methodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}

		var payload upsertMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method := payload.toModel()
		if err := svc.Upsert(r.Context(), method); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newMethodResponse(method))
	}
}

type upsertMethodRequest struct {
	ID                *uuid.UUID      `json:"id,omitempty"`
	Name              string          `json:"name" validate:"required,max=64"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	AffectsCashDrawer bool            `json:"affects_cash_drawer"`
	IsActive          *bool           `json:"is_active,omitempty"`
}

func (p upsertMethodRequest) toModel() *models.PaymentMethod {
	method := &models.PaymentMethod{
		Name:              p.Name,
		DiscountPercent:   p.DiscountPercent,
		AffectsCashDrawer: p.AffectsCashDrawer,
		IsActive:          true,
	}
	if p.ID != nil {
		method.ID = *p.ID
	}
	if p.IsActive != nil {
		method.IsActive = *p.IsActive
	}
	return method
}

type methodResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	AffectsCashDrawer bool            `json:"affects_cash_drawer"`
	IsActive          bool            `json:"is_active"`
}

func newMethodResponse(method *models.PaymentMethod) methodResponse {
	return methodResponse{
		ID:                method.ID,
		Name:              method.Name,
		DiscountPercent:   method.DiscountPercent,
		AffectsCashDrawer: method.AffectsCashDrawer,
		IsActive:          method.IsActive,
	}
}
