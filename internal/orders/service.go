package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/paymentlog"
	dbpkg "github.com/mintmotion/mintmotion-backend/pkg/db"
	"github.com/mintmotion/mintmotion-backend/pkg/db/models"
	"github.com/mintmotion/mintmotion-backend/pkg/enums"
	pkgerrors "github.com/mintmotion/mintmotion-backend/pkg/errors"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox"
	"github.com/mintmotion/mintmotion-backend/pkg/outbox/payloads"
	"github.com/mintmotion/mintmotion-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditLogger interface {
	Append(ctx context.Context, entry paymentlog.Entry)
}

// CreateOrderInput carries everything needed to persist a confirmed payment.
type CreateOrderInput struct {
	UserID        uuid.UUID
	Network       *models.BlockchainNetwork
	TxHash        string
	WalletAddress string
	TotalUSD      decimal.Decimal
	TotalNative   decimal.Decimal
	Items         []cart.Item
	ConfirmedAt   time.Time
}

// OrderView pairs a persisted transaction with its derived status.
type OrderView struct {
	Transaction models.Transaction
	Aggregated  AggregatedStatus
}

// Service persists orders and serves order history.
type Service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	audit  auditLogger
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, audit auditLogger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	return &Service{repo: repo, tx: tx, outbox: outboxSvc, audit: audit}, nil
}

// CreateFromPayment atomically creates one transaction row plus one record
// per cart item, all tagged processing, and queues the order_created event
// in the same database transaction. A duplicate hash is rejected with a
// conflict; the unique index on tx_hash is the durable guard even when two
// submitters race past the in-flight check.
func (s *Service) CreateFromPayment(ctx context.Context, input CreateOrderInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Network == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "no network resolved for payment")
	}
	hash := strings.ToLower(strings.TrimSpace(input.TxHash))
	if hash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction hash required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot record an order with no items")
	}

	transaction := &models.Transaction{
		ID:            uuid.New(),
		UserID:        input.UserID,
		NetworkID:     input.Network.ID,
		TxHash:        hash,
		WalletAddress: input.WalletAddress,
		TotalUSD:      input.TotalUSD,
		TotalNative:   input.TotalNative,
		Symbol:        input.Network.Symbol,
		Status:        enums.TransactionStatusSuccess,
	}
	if !input.ConfirmedAt.IsZero() {
		confirmed := input.ConfirmedAt
		transaction.ConfirmedAt = &confirmed
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateTransaction(ctx, transaction); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_transactions_tx_hash") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an order already exists for this transaction hash").
					WithDetails(map[string]string{"tx_hash": hash})
			}
			return pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, "create transaction row")
		}

		records := make([]models.Record, 0, len(input.Items))
		for _, item := range input.Items {
			records = append(records, models.Record{
				ID:              uuid.New(),
				TransactionID:   transaction.ID,
				TemplateID:      item.Template.ID,
				ProjectID:       item.Project.ID,
				OrderNumber:     item.ID.String(),
				PriceUSD:        item.PriceUSD(),
				BackgroundColor: item.BackgroundColor,
				Headline:        item.Headline,
				Subheadline:     item.Subheadline,
				Status:          enums.RecordStatusProcessing,
			})
		}
		if err := repo.CreateRecords(ctx, records); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, "create record rows")
		}

		recordIDs := make([]uuid.UUID, 0, len(records))
		renders := make([]payloads.RenderRequested, 0, len(records))
		for _, record := range records {
			recordIDs = append(recordIDs, record.ID)
			renders = append(renders, payloads.RenderRequested{
				RecordID:        record.ID,
				TemplateID:      record.TemplateID,
				ProjectID:       record.ProjectID,
				BackgroundColor: record.BackgroundColor,
				Headline:        record.Headline,
				Subheadline:     record.Subheadline,
			})
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   transaction.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID, Wallet: input.WalletAddress},
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				TransactionID: transaction.ID,
				UserID:        input.UserID,
				TxHash:        hash,
				ChainID:       input.Network.ChainID,
				TotalUSD:      input.TotalUSD.StringFixed(2),
				RecordIDs:     recordIDs,
				Renders:       renders,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	// best effort, never fails the order
	s.audit.Append(ctx, paymentlog.Entry{
		UserID:    &input.UserID,
		TxHash:    &hash,
		EventType: enums.PaymentLogTransactionCreated,
		Detail: map[string]any{
			"item_count": len(input.Items),
			"chain_id":   input.Network.ChainID,
			"total_usd":  input.TotalUSD.StringFixed(2),
		},
	})

	return transaction, nil
}

// FindByTxHash returns the order recorded for a hash, if any.
func (s *Service) FindByTxHash(ctx context.Context, txHash string) (*models.Transaction, error) {
	hash := strings.ToLower(strings.TrimSpace(txHash))
	transaction, err := s.repo.FindByTxHash(ctx, hash)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by hash")
	}
	return transaction, nil
}

// Get loads one order owned by the user, with its aggregated status.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderView, error) {
	transaction, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if transaction.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return &OrderView{
		Transaction: *transaction,
		Aggregated:  Aggregate(transaction.Records),
	}, nil
}

// ListByUser returns the user's order history, newest first, with each
// order's aggregated status derived on read.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]OrderView, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	views := make([]OrderView, 0, len(page.Items))
	for _, transaction := range page.Items {
		views = append(views, OrderView{
			Transaction: transaction,
			Aggregated:  Aggregate(transaction.Records),
		})
	}
	return views, page.NextCursor, nil
}

// MarkRecordDelivered flips one record to delivered with its video URL.
func (s *Service) MarkRecordDelivered(ctx context.Context, recordID uuid.UUID, videoURL string, deliveredAt time.Time) error {
	if recordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}
	return s.repo.UpdateRecordStatus(ctx, recordID, enums.RecordStatusDelivered, map[string]any{
		"video_url":    videoURL,
		"delivered_at": deliveredAt,
	})
}

// MarkRecordFailed flips one record to failed with its reason.
func (s *Service) MarkRecordFailed(ctx context.Context, recordID uuid.UUID, reason string) error {
	if recordID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}
	return s.repo.UpdateRecordStatus(ctx, recordID, enums.RecordStatusFailed, map[string]any{
		"failure_reason": reason,
	})
}
