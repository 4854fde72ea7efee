package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidStateTransition indicates a lifecycle operation is not allowed from the current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrInvalidBudgetState narrows ErrInvalidStateTransition to budgets.
	ErrInvalidBudgetState = errors.New("invalid budget state")
	// ErrUnbalancedEntry indicates total debit != total credit.
	ErrUnbalancedEntry = errors.New("journal entry is not balanced")
	// ErrEmptyEntry indicates a journal entry without lines.
	ErrEmptyEntry = errors.New("journal entry has no lines")
	// ErrEmptyBudget indicates a budget without lines.
	ErrEmptyBudget = errors.New("budget has no lines")
	// ErrMissingRequiredDimension indicates a line lacks a dimension its account mandates.
	ErrMissingRequiredDimension = errors.New("missing required dimension")
	// ErrDirectPostingNotAllowed indicates the account only aggregates children.
	ErrDirectPostingNotAllowed = errors.New("direct posting not allowed")
	// ErrAccountInactive indicates a line references a deactivated account.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrBudgetNotActive indicates variance was requested for a non ACTIVE budget.
	ErrBudgetNotActive = errors.New("budget is not active")
	// ErrDuplicateCode indicates a unique business code is taken.
	ErrDuplicateCode = errors.New("duplicate code")
	// ErrInvalidAmount indicates negative, empty or over-precise line amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// AmountScale is the number of decimal places stored for every ledger and
// budget amount.
const AmountScale = 4

// CheckScale rejects amounts finer than AmountScale. Storage would round each
// line on its own, so a balanced entry could land unbalanced.
func CheckScale(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), AmountScale)
	}
	return nil
}

// NotFoundError names the missing entity and the key used to look it up.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// Is reports ErrNotFound equivalence.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// StateTransitionError describes a rejected lifecycle move.
type StateTransitionError struct {
	Entity string
	ID     int64
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s %d: cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// Is matches ErrInvalidStateTransition, and ErrInvalidBudgetState for budgets.
func (e *StateTransitionError) Is(target error) bool {
	if target == ErrInvalidStateTransition {
		return true
	}
	return target == ErrInvalidBudgetState && e.Entity == "budget"
}

// UnbalancedError carries both sums of the offending entry.
type UnbalancedError struct {
	EntryID int64
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("journal entry %d is not balanced: debit %s, credit %s", e.EntryID, e.Debit.StringFixed(4), e.Credit.StringFixed(4))
}

func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalancedEntry
}

// MissingDimensionError names the absent dimension and the account requiring it.
type MissingDimensionError struct {
	Dimension   string
	AccountCode string
}

func (e *MissingDimensionError) Error() string {
	return fmt.Sprintf("account %s requires dimension %s", e.AccountCode, e.Dimension)
}

func (e *MissingDimensionError) Is(target error) bool {
	return target == ErrMissingRequiredDimension
}

// DirectPostingError names the account that refuses direct lines.
type DirectPostingError struct {
	AccountCode string
}

func (e *DirectPostingError) Error() string {
	return fmt.Sprintf("account %s does not allow direct posting", e.AccountCode)
}

func (e *DirectPostingError) Is(target error) bool {
	return target == ErrDirectPostingNotAllowed
}

// DuplicateCodeError names the entity and the conflicting code.
type DuplicateCodeError struct {
	Entity string
	Code   string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s code %q already exists", e.Entity, e.Code)
}

func (e *DuplicateCodeError) Is(target error) bool {
	return target == ErrDuplicateCode
}
