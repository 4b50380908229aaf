package accounts

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Stub is an in-process accounts service for local runs. Every call succeeds
// unless a failure code is configured for it.
type Stub struct {
	mu       sync.Mutex
	holds    map[HoldReference]int64
	failHold string
	failDraw string
	logger   *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{
		holds:  make(map[HoldReference]int64),
		logger: logger,
	}
}

// FailHoldsWith makes PlaceHold return code. An empty code clears it.
func (s *Stub) FailHoldsWith(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failHold = code
}

// FailWithdrawalsWith makes WithdrawFunds return code. An empty code clears it.
func (s *Stub) FailWithdrawalsWith(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDraw = code
}

func (s *Stub) PlaceHold(ctx context.Context, accountNumber string, amount int64) (HoldReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failHold != "" {
		return "", NewError(s.failHold)
	}
	if amount <= 0 {
		return "", NewError(CodeInvalidAmount)
	}

	ref := HoldReference("hold_" + uuid.NewString())
	s.holds[ref] = amount
	s.logger.Debug("stub: hold placed", "hold_reference", ref, "amount", amount)
	return ref, nil
}

func (s *Stub) WithdrawFunds(ctx context.Context, hold HoldReference) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDraw != "" {
		return nil, NewError(s.failDraw)
	}
	if _, ok := s.holds[hold]; !ok {
		return nil, NewError(CodeUnknown)
	}

	delete(s.holds, hold)
	return &Receipt{ID: "rcpt_" + uuid.NewString()}, nil
}

func (s *Stub) ReleaseHold(ctx context.Context, hold HoldReference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.holds, hold)
	s.logger.Debug("stub: hold released", "hold_reference", hold)
	return nil
}

// OpenHolds reports holds that were placed but neither withdrawn nor released.
func (s *Stub) OpenHolds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}
