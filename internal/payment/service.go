package payment

import (
	"context"
	stderrors "errors"
	"log/slog"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/accounts"
	"github.com/frahmantamala/payment-ledger/internal/card"
	"github.com/frahmantamala/payment-ledger/internal/core/common/validation"
	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

// Errors returned by repositories.
var (
	ErrDuplicateActiveCard = stderrors.New("payment already processing for card")
	ErrNotFound            = stderrors.New("payment not found")
	ErrInvalidTransition   = stderrors.New("payment status transition rejected")
)

// RepositoryAPI is the ledger store for payments. Create must reject a second
// processing row for the same card atomically; Transition must only apply
// when the stored status still equals from.
type RepositoryAPI interface {
	Create(ctx context.Context, p *paymentDatamodel.Payment) error
	GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error)
	Transition(ctx context.Context, id, from, to string) error
}

type Service struct {
	repo      RepositoryAPI
	accounts  accounts.Service
	cards     card.Validator
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, accountService accounts.Service, cards card.Validator, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		accounts:  accountService,
		cards:     cards,
		publisher: publisher,
		logger:    logger,
	}
}

// SubmitPayment runs hold, approve, withdraw. Once the processing row exists
// the flow ignores caller cancellation so the row always reaches a terminal
// status.
func (s *Service) SubmitPayment(ctx context.Context, cardNumber string, amount int64) (*Payment, error) {
	switch {
	case amount == 0:
		return nil, errors.ErrZeroAmount
	case amount < 0:
		return nil, errors.ErrNegativeAmount
	}

	if err := s.cards.Validate(cardNumber); err != nil {
		return nil, errors.ErrInvalidCard.WithCause(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	p := NewPayment(cardNumber, amount)
	log := logger.FromOr(ctx, s.logger).With("payment_id", p.ID, "card_number", card.Mask(cardNumber))

	if err := s.repo.Create(ctx, ToDataModel(p)); err != nil {
		if stderrors.Is(err, ErrDuplicateActiveCard) {
			log.Info("payment rejected, card already in use")
			return nil, errors.ErrCardInUse
		}
		log.Error("failed to create payment record", "error", err)
		return nil, errors.NewStorageError("failed to record payment", err)
	}

	hold, err := s.accounts.PlaceHold(ctx, cardNumber, amount)
	if err != nil {
		log.Warn("hold rejected", "error", err)
		return nil, s.terminate(ctx, log, p, err)
	}

	if err := s.transition(ctx, p, StatusApproved); err != nil {
		log.Error("failed to approve payment, releasing hold", "error", err, "hold_reference", hold)
		s.release(ctx, log, hold)
		if markErr := s.transition(ctx, p, StatusFailed); markErr != nil {
			log.Error("failed to mark payment failed", "error", markErr)
		} else {
			s.publish(ctx, log, p, "approval write failed")
		}
		return nil, errors.NewStorageError("failed to approve payment", err)
	}

	if _, err := s.accounts.WithdrawFunds(ctx, hold); err != nil {
		log.Warn("withdrawal rejected, releasing hold", "error", err, "hold_reference", hold)
		appErr := s.terminate(ctx, log, p, err)
		s.release(ctx, log, hold)
		return nil, appErr
	}

	log.Info("payment approved", "amount", amount)
	s.publish(ctx, log, p, "")
	return p, nil
}

// terminate classifies an accounts failure and moves the payment to the
// matching terminal status from whatever status it currently has.
func (s *Service) terminate(ctx context.Context, log *slog.Logger, p *Payment, cause error) error {
	outcome := Classify(cause)

	if err := s.transition(ctx, p, outcome.Status); err != nil {
		log.Error("failed to record payment outcome", "error", err, "target_status", outcome.Status)
		return errors.NewStorageError("failed to record payment outcome", err)
	}

	s.publish(ctx, log, p, accounts.CodeOf(cause))
	return outcome.Err.WithDetails(p.ToResponse())
}

func (s *Service) transition(ctx context.Context, p *Payment, to string) error {
	from := p.Status
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	if err := s.repo.Transition(ctx, p.ID, from, to); err != nil {
		return err
	}
	p.Status = to
	return nil
}

// release is best effort. A failure leaves an orphaned hold that only
// reconciliation can recover, so it is logged at error level.
func (s *Service) release(ctx context.Context, log *slog.Logger, hold accounts.HoldReference) {
	if err := s.accounts.ReleaseHold(ctx, hold); err != nil {
		log.Error("failed to release hold", "error", err, "hold_reference", hold)
	}
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, p *Payment, reason string) {
	if s.publisher == nil {
		return
	}

	eventType := events.EventTypePaymentFailed
	switch p.Status {
	case StatusApproved:
		eventType = events.EventTypePaymentApproved
	case StatusDeclined:
		eventType = events.EventTypePaymentDeclined
	}

	event := events.NewPaymentSettledEvent(eventType, p.ID, p.Amount, p.Status, reason)
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish payment event", "error", err, "event_type", eventType)
	}
}

func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if appErr := validation.ValidateID("id", id); appErr != nil {
		return nil, appErr
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		logger.FromOr(ctx, s.logger).Error("failed to load payment", "error", err, "payment_id", id)
		return nil, errors.NewStorageError("failed to load payment", err)
	}
	return FromDataModel(p), nil
}
