package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
)

// TemplateSnapshot caches the template fields shown in the cart so the line
// survives catalog edits made after the item was added.
type TemplateSnapshot struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	PriceUSD     string    `json:"priceUsd"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// ProjectSnapshot caches the branding the render will use.
type ProjectSnapshot struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Ticker          string    `json:"ticker"`
	BackgroundColor string    `json:"backgroundColor"`
	AccentColor     *string   `json:"accentColor,omitempty"`
	LogoURL         *string   `json:"logoUrl,omitempty"`
}

// Item is one unconfirmed purchase intent inside a cart.
type Item struct {
	ID              uuid.UUID        `json:"id"`
	Template        TemplateSnapshot `json:"template"`
	Project         ProjectSnapshot  `json:"project"`
	BackgroundColor string           `json:"backgroundColor"`
	Headline        *string          `json:"headline,omitempty"`
	Subheadline     *string          `json:"subheadline,omitempty"`
	AddedAt         time.Time        `json:"addedAt"`
}

// PriceUSD parses the snapshotted template price.
func (i Item) PriceUSD() decimal.Decimal {
	price, err := decimal.NewFromString(i.Template.PriceUSD)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// Summary is the cart rollup shown in the header and on the cart page.
type Summary struct {
	ItemCount   int
	SubtotalUSD decimal.Decimal
}

// AddItemInput is the payload for adding a customized template to the cart.
type AddItemInput struct {
	TemplateID      uuid.UUID
	ProjectID       uuid.UUID
	BackgroundColor string
	Headline        *string
	Subheadline     *string
}

type catalogReader interface {
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	FindProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
}

// Service exposes cart CRUD plus the summary computation.
type Service struct {
	store   *Store
	catalog catalogReader
}

// NewService builds the cart service.
func NewService(store *Store, catalog catalogReader) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	return &Service{store: store, catalog: catalog}, nil
}

// Items returns the user's current cart contents.
func (s *Service) Items(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.store.Load(ctx, userID.String())
}

// AddItem appends a customized template to the cart. The same template may
// be added twice with different customizations; there is no de-duplication.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Item, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.TemplateID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template id required")
	}
	if input.ProjectID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "project id required")
	}

	template, err := s.catalog.FindTemplate(ctx, input.TemplateID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "template not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load template")
	}
	if !template.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template is no longer available")
	}
	if input.Headline != nil && !template.SupportsHeadline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template does not support a headline")
	}
	if input.Subheadline != nil && !template.SupportsSubheadline {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template does not support a subheadline")
	}

	project, err := s.catalog.FindProject(ctx, input.ProjectID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
	if project.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "project does not belong to user")
	}

	background := input.BackgroundColor
	if background == "" {
		background = project.BackgroundColor
	}

	item := Item{
		ID: uuid.New(),
		Template: TemplateSnapshot{
			ID:           template.ID,
			Name:         template.Name,
			Category:     template.Category,
			PriceUSD:     template.PriceUSD.StringFixed(2),
			ThumbnailURL: template.ThumbnailURL,
		},
		Project: ProjectSnapshot{
			ID:              project.ID,
			Name:            project.Name,
			Ticker:          project.Ticker,
			BackgroundColor: project.BackgroundColor,
			AccentColor:     project.AccentColor,
			LogoURL:         project.LogoURL,
		},
		BackgroundColor: background,
		Headline:        input.Headline,
		Subheadline:     input.Subheadline,
		AddedAt:         time.Now().UTC(),
	}

	items, err := s.store.Load(ctx, userID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	items = append(items, item)
	if err := s.store.Save(ctx, userID.String(), items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return &item, nil
}

// RemoveItem drops the item with the matching id. Removing an absent item
// is a no-op, not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.store.Load(ctx, userID.String())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	kept := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	if err := s.store.Save(ctx, userID.String(), kept); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Clear empties the cart. Called after order persistence succeeds.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.store.Clear(ctx, userID.String())
}

// GetSummary returns the item count and USD subtotal. The native-token
// total paid at checkout is computed separately, per item, at submission.
func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(items), nil
}

// Summarize rolls up a cart list without touching storage.
func Summarize(items []Item) *Summary {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.PriceUSD())
	}
	return &Summary{
		ItemCount:   len(items),
		SubtotalUSD: subtotal,
	}
}
