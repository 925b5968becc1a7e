package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	cartsvc "github.com/mintmotion/mintmotion-backend/internal/cart"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type cartService interface {
	Items(ctx context.Context, userID uuid.UUID) ([]cartsvc.Item, error)
	AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.Item, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	GetSummary(ctx context.Context, userID uuid.UUID) (*cartsvc.Summary, error)
}

type cartItemResponse struct {
	ID              uuid.UUID `json:"id"`
	TemplateID      uuid.UUID `json:"templateId"`
	TemplateName    string    `json:"templateName"`
	PriceUSD        string    `json:"priceUsd"`
	ProjectID       uuid.UUID `json:"projectId"`
	ProjectName     string    `json:"projectName"`
	BackgroundColor string    `json:"backgroundColor"`
	Headline        *string   `json:"headline,omitempty"`
	Subheadline     *string   `json:"subheadline,omitempty"`
	AddedAt         time.Time `json:"addedAt"`
}

type cartResponse struct {
	Items       []cartItemResponse `json:"items"`
	ItemCount   int                `json:"itemCount"`
	SubtotalUSD string             `json:"subtotalUsd"`
}

func newCartItemResponse(item cartsvc.Item) cartItemResponse {
	return cartItemResponse{
		ID:              item.ID,
		TemplateID:      item.Template.ID,
		TemplateName:    item.Template.Name,
		PriceUSD:        item.Template.PriceUSD,
		ProjectID:       item.Project.ID,
		ProjectName:     item.Project.Name,
		BackgroundColor: item.BackgroundColor,
		Headline:        item.Headline,
		Subheadline:     item.Subheadline,
		AddedAt:         item.AddedAt,
	}
}

func newCartResponse(items []cartsvc.Item) cartResponse {
	out := cartResponse{Items: make([]cartItemResponse, len(items))}
	for i, item := range items {
		out.Items[i] = newCartItemResponse(item)
	}
	summary := cartsvc.Summarize(items)
	out.ItemCount = summary.ItemCount
	out.SubtotalUSD = summary.SubtotalUSD.StringFixed(2)
	return out
}

// CartFetch returns the caller's cart with its USD subtotal.
func CartFetch(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Items(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(items))
	}
}

type cartSummaryResponse struct {
	ItemCount   int    `json:"itemCount"`
	SubtotalUSD string `json:"subtotalUsd"`
}

// CartSummary returns the cart's item count and USD subtotal without the items.
func CartSummary(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.GetSummary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartSummaryResponse{
			ItemCount:   summary.ItemCount,
			SubtotalUSD: summary.SubtotalUSD.StringFixed(2),
		})
	}
}

type addCartItemRequest struct {
	TemplateID      uuid.UUID `json:"templateId" validate:"required"`
	ProjectID       uuid.UUID `json:"projectId" validate:"required"`
	BackgroundColor string    `json:"backgroundColor" validate:"omitempty,hexcolor"`
	Headline        *string   `json:"headline,omitempty" validate:"omitempty,max=80"`
	Subheadline     *string   `json:"subheadline,omitempty" validate:"omitempty,max=120"`
}

// CartAddItem appends a customized template to the caller's cart.
func CartAddItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.AddItem(r.Context(), userID, cartsvc.AddItemInput{
			TemplateID:      payload.TemplateID,
			ProjectID:       payload.ProjectID,
			BackgroundColor: payload.BackgroundColor,
			Headline:        payload.Headline,
			Subheadline:     payload.Subheadline,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartItemResponse(*item))
	}
}

// CartRemoveItem drops one item from the caller's cart.
func CartRemoveItem(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Items(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(items))
	}
}

// CartClear empties the caller's cart.
func CartClear(svc cartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(nil))
	}
}
