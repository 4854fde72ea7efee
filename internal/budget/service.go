package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available inside one transaction.
type TxRepository interface {
	InsertBudget(ctx context.Context, b Budget) (Budget, error)
	GetBudget(ctx context.Context, id int64) (Budget, error)
	GetBudgetForUpdate(ctx context.Context, id int64) (Budget, error)
	GetBudgetByCode(ctx context.Context, code string) (Budget, error)
	ListBudgets(ctx context.Context, filter ListFilter) ([]Budget, error)
	UpdateBudget(ctx context.Context, b Budget) error
	ReplaceLines(ctx context.Context, budgetID int64, lines []Line) error
	DeleteBudget(ctx context.Context, id int64) error
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	TotalBudgetedForAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

// PeriodLookup resolves the period a budget belongs to.
type PeriodLookup interface {
	GetByID(ctx context.Context, id int64) (periods.Period, error)
}

// Numberer hands out budget codes.
type Numberer interface {
	Next(ctx context.Context) (string, error)
}

// ListFilter narrows budget listings. Zero values are ignored.
type ListFilter struct {
	PeriodID int64
	Status   Status
}

// Service coordinates the budget lifecycle.
type Service struct {
	repo      RepositoryPort
	periods   PeriodLookup
	numberer  Numberer
	approvals shared.ApprovalPort
	audit     shared.AuditPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the budget engine. approvals and audit may be nil.
func NewService(repo RepositoryPort, periods PeriodLookup, numberer Numberer, approvals shared.ApprovalPort, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, periods: periods, numberer: numberer, approvals: approvals, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create opens a DRAFT budget at version 1.
func (s *Service) Create(ctx context.Context, input CreateInput) (Budget, error) {
	if err := input.Validate(); err != nil {
		return Budget{}, err
	}
	if _, err := s.periods.GetByID(ctx, input.PeriodID); err != nil {
		return Budget{}, fmt.Errorf("budget: period %d: %w", input.PeriodID, err)
	}
	code := input.Code
	if code == "" {
		if s.numberer == nil {
			return Budget{}, errors.New("budget: code required")
		}
		var err error
		if code, err = s.numberer.Next(ctx); err != nil {
			return Budget{}, err
		}
	}
	var created Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		created, err = tx.InsertBudget(ctx, Budget{
			Code:        code,
			Name:        input.Name,
			Description: input.Description,
			PeriodID:    input.PeriodID,
			Type:        input.Type,
			Status:      StatusDraft,
			Version:     1,
			Notes:       input.Notes,
		})
		return err
	})
	if err != nil {
		return Budget{}, err
	}
	s.logger.Info("budget created", slog.Int64("budget_id", created.ID), slog.String("code", created.Code))
	s.recordAudit(ctx, input.ActorID, "budget.create", created.ID, map[string]any{"code": created.Code})
	return created, nil
}

// mutate loads the budget under lock, applies fn and persists the result.
func (s *Service) mutate(ctx context.Context, id int64, fn func(context.Context, TxRepository, *Budget) error) (Budget, error) {
	var out Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBudgetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, &b); err != nil {
			return err
		}
		if err := tx.UpdateBudget(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	return out, err
}

// UpdateHeader edits descriptive fields of a DRAFT or SUBMITTED budget.
func (s *Service) UpdateHeader(ctx context.Context, id int64, input HeaderInput) (Budget, error) {
	if err := input.Validate(); err != nil {
		return Budget{}, err
	}
	return s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.UpdateHeader(input)
	})
}

// AddLine appends a line to a DRAFT budget.
func (s *Service) AddLine(ctx context.Context, id int64, input LineInput) (Budget, error) {
	if err := input.Validate(); err != nil {
		return Budget{}, err
	}
	return s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		if err := b.requireDraft("ADD_LINE"); err != nil {
			return err
		}
		acct, err := tx.GetAccount(ctx, input.AccountID)
		if err != nil {
			return err
		}
		if _, err := b.AddLine(acct, input); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, b.ID, b.Lines)
	})
}

// RemoveLine drops a line from a DRAFT budget.
func (s *Service) RemoveLine(ctx context.Context, id int64, lineNumber int) (Budget, error) {
	return s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		if err := b.RemoveLine(lineNumber); err != nil {
			return err
		}
		return tx.ReplaceLines(ctx, b.ID, b.Lines)
	})
}

// Submit sends a DRAFT budget for approval.
func (s *Service) Submit(ctx context.Context, id, actorID int64) (Budget, error) {
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Submit(s.now())
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, shared.ApprovalSubmit, "")
	return b, nil
}

// Approve approves a SUBMITTED budget.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (Budget, error) {
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Approve(s.now(), actorID)
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, shared.ApprovalApprove, "")
	return b, nil
}

// Reject returns a SUBMITTED budget with a reason.
func (s *Service) Reject(ctx context.Context, id, actorID int64, reason string) (Budget, error) {
	if reason == "" {
		return Budget{}, errors.New("budget: rejection reason required")
	}
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Reject(reason)
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, shared.ApprovalReject, reason)
	return b, nil
}

// Activate moves an APPROVED budget to ACTIVE.
func (s *Service) Activate(ctx context.Context, id, actorID int64) (Budget, error) {
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Activate()
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, "", "")
	return b, nil
}

// Cancel abandons a DRAFT budget.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (Budget, error) {
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Cancel(reason)
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, "", reason)
	return b, nil
}

// Complete closes an ACTIVE budget.
func (s *Service) Complete(ctx context.Context, id, actorID int64) (Budget, error) {
	b, err := s.mutate(ctx, id, func(ctx context.Context, tx TxRepository, b *Budget) error {
		return b.Complete()
	})
	if err != nil {
		return Budget{}, err
	}
	s.transitioned(ctx, b, actorID, "", "")
	return b, nil
}

// Delete removes a DRAFT budget and its lines.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	var code string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBudgetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := b.requireDraft("DELETED"); err != nil {
			return err
		}
		code = b.Code
		return tx.DeleteBudget(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("budget deleted", slog.Int64("budget_id", id), slog.String("code", code))
	s.recordAudit(ctx, actorID, "budget.delete", id, map[string]any{"code": code})
	return nil
}

// Get loads a budget with its lines.
func (s *Service) Get(ctx context.Context, id int64) (Budget, error) {
	var b Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		b, err = tx.GetBudget(ctx, id)
		return err
	})
	return b, err
}

// GetByCode loads a budget by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (Budget, error) {
	var b Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		b, err = tx.GetBudgetByCode(ctx, code)
		return err
	})
	return b, err
}

// ListByPeriod returns the budgets planned for a period.
func (s *Service) ListByPeriod(ctx context.Context, periodID int64) ([]Budget, error) {
	return s.list(ctx, ListFilter{PeriodID: periodID})
}

// ListByStatus returns the budgets in a lifecycle state.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Budget, error) {
	return s.list(ctx, ListFilter{Status: status})
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]Budget, error) {
	var out []Budget
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.ListBudgets(ctx, filter)
		return err
	})
	return out, err
}

// TotalBudgetedForAccount sums line amounts on accountID across ACTIVE budgets.
func (s *Service) TotalBudgetedForAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		total, err = tx.TotalBudgetedForAccount(ctx, accountID)
		return err
	})
	return total, err
}

func (s *Service) transitioned(ctx context.Context, b Budget, actorID int64, action shared.ApprovalAction, note string) {
	s.logger.Info("budget status changed", slog.Int64("budget_id", b.ID), slog.String("code", b.Code), slog.String("status", string(b.Status)))
	if action != "" && s.approvals != nil {
		err := s.approvals.Record(ctx, shared.ApprovalLog{
			Module:  entity,
			RefID:   b.ID,
			ActorID: actorID,
			Action:  action,
			Note:    note,
			At:      s.now(),
		})
		if err != nil {
			s.logger.Warn("budget approval log", slog.Int64("budget_id", b.ID), slog.Any("error", err))
		}
	}
	meta := map[string]any{"code": b.Code, "status": string(b.Status), "version": b.Version}
	if note != "" {
		meta["note"] = note
	}
	s.recordAudit(ctx, actorID, "budget."+auditAction(b.Status), b.ID, meta)
}

func auditAction(st Status) string {
	switch st {
	case StatusSubmitted:
		return "submit"
	case StatusApproved:
		return "approve"
	case StatusRejected:
		return "reject"
	case StatusActive:
		return "activate"
	case StatusCancelled:
		return "cancel"
	case StatusCompleted:
		return "complete"
	default:
		return "update"
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("budget audit", slog.String("action", action), slog.Any("error", err))
	}
}
