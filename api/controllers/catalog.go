package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/mintmotion/mintmotion-backend/api/responses"
	"github.com/mintmotion/mintmotion-backend/api/validators"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
)

type catalogProvider interface {
	ListActiveTemplates(ctx context.Context) ([]models.Template, error)
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)
}

type templateResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Category            string    `json:"category"`
	PriceUSD            string    `json:"priceUsd"`
	ThumbnailURL        string    `json:"thumbnailUrl"`
	SupportsHeadline    bool      `json:"supportsHeadline"`
	SupportsSubheadline bool      `json:"supportsSubheadline"`
}

type projectResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Ticker          string    `json:"ticker"`
	BackgroundColor string    `json:"backgroundColor"`
	AccentColor     *string   `json:"accentColor,omitempty"`
	LogoURL         *string   `json:"logoUrl,omitempty"`
}

func newTemplateResponse(t models.Template) templateResponse {
	return templateResponse{
		ID:                  t.ID,
		Name:                t.Name,
		Category:            t.Category,
		PriceUSD:            t.PriceUSD.StringFixed(2),
		ThumbnailURL:        t.ThumbnailURL,
		SupportsHeadline:    t.SupportsHeadline,
		SupportsSubheadline: t.SupportsSubheadline,
	}
}

func newProjectResponse(p models.Project) projectResponse {
	return projectResponse{
		ID:              p.ID,
		Name:            p.Name,
		Ticker:          p.Ticker,
		BackgroundColor: p.BackgroundColor,
		AccentColor:     p.AccentColor,
		LogoURL:         p.LogoURL,
	}
}

// TemplatesList returns the purchasable templates.
func TemplatesList(catalog catalogProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		templates, err := catalog.ListActiveTemplates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing templates"))
			return
		}

		out := make([]templateResponse, len(templates))
		for i, t := range templates {
			out[i] = newTemplateResponse(t)
		}
		responses.WriteSuccess(w, out)
	}
}

// ProjectsList returns the caller's branding projects.
func ProjectsList(catalog catalogProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projects, err := catalog.ListProjectsByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing projects"))
			return
		}

		out := make([]projectResponse, len(projects))
		for i, p := range projects {
			out[i] = newProjectResponse(p)
		}
		responses.WriteSuccess(w, out)
	}
}

type createProjectRequest struct {
	Name            string  `json:"name" validate:"required,max=120"`
	Ticker          string  `json:"ticker" validate:"required,max=12"`
	BackgroundColor string  `json:"backgroundColor" validate:"required,hexcolor"`
	AccentColor     *string `json:"accentColor,omitempty" validate:"omitempty,hexcolor"`
	LogoURL         *string `json:"logoUrl,omitempty" validate:"omitempty,url"`
}

// ProjectCreate stores a new branding project for the caller.
func ProjectCreate(catalog catalogProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProjectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		project, err := catalog.CreateProject(r.Context(), &models.Project{
			ID:              uuid.New(),
			UserID:          userID,
			Name:            payload.Name,
			Ticker:          payload.Ticker,
			BackgroundColor: payload.BackgroundColor,
			AccentColor:     payload.AccentColor,
			LogoURL:         payload.LogoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating project"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProjectResponse(*project))
	}
}
