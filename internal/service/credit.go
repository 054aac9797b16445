package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/game-idea-generator/internal/apperror"
	"github.com/sakif/game-idea-generator/internal/model"
	"github.com/sakif/game-idea-generator/internal/repository"
)

// CreditCost is what one create or generate request costs.
const CreditCost = 1

// CreditLedger guards the per-user generation balance.
type CreditLedger struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewCreditLedger(users repository.UserRepository, logger *slog.Logger) *CreditLedger {
	return &CreditLedger{users: users, logger: logger}
}

// CheckAndDebit takes one credit from username and returns the user with
// the debited balance.
//
// Unknown users get apperror.ErrNotFound. A user without credit gets
// apperror.ErrForbidden and keeps their balance. The debit is persisted
// before this returns.
func (l *CreditLedger) CheckAndDebit(ctx context.Context, username string) (*model.User, error) {
	user, err := l.users.GetUserByID(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/credit: loading user %s: %w", username, err)
	}
	if user.Credits < CreditCost {
		return nil, apperror.Forbidden("not enough credits")
	}

	ok, err := l.users.DebitCredit(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/credit: debiting %s: %w", username, err)
	}
	if !ok {
		// Another request spent the last credit between the read and the update.
		return nil, apperror.Forbidden("not enough credits")
	}
	user.Credits -= CreditCost

	l.logger.Debug("credit debited", slog.String("user", username), slog.Int("balance", user.Credits))
	return user, nil
}

// Refund gives back the credit taken by CheckAndDebit. It runs on a context
// that ignores cancellation so a client hanging up cannot lose the refund.
func (l *CreditLedger) Refund(ctx context.Context, username string) {
	ctx = context.WithoutCancel(ctx)
	if err := l.users.AddCredits(ctx, username, CreditCost); err != nil {
		l.logger.Error("credit refund failed",
			slog.String("user", username),
			slog.String("error", err.Error()),
		)
		return
	}
	l.logger.Info("credit refunded", slog.String("user", username))
}

// Balance returns the current credit balance of username.
func (l *CreditLedger) Balance(ctx context.Context, username string) (int, error) {
	user, err := l.users.GetUserByID(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("service/credit: loading user %s: %w", username, err)
	}
	return user.Credits, nil
}
