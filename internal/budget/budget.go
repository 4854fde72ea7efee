package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

const entity = "budget"

var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusActive},
	StatusActive:    {StatusCompleted},
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (b *Budget) stateError(to string) error {
	return &shared.StateTransitionError{Entity: entity, ID: b.ID, From: string(b.Status), To: to}
}

func (b *Budget) moveTo(to Status) error {
	if !CanTransition(b.Status, to) {
		return b.stateError(string(to))
	}
	b.Status = to
	return nil
}

func (b *Budget) requireDraft(action string) error {
	if b.Status != StatusDraft {
		return b.stateError(action)
	}
	return nil
}

func (b *Budget) appendNote(prefix, text string) {
	note := prefix + ": " + text
	if strings.TrimSpace(b.Notes) == "" {
		b.Notes = note
		return
	}
	b.Notes = b.Notes + "\n" + note
}

// AddLine appends a planned amount on acct. Only drafts accept lines.
func (b *Budget) AddLine(acct accounts.Account, in LineInput) (Line, error) {
	if err := b.requireDraft("ADD_LINE"); err != nil {
		return Line{}, err
	}
	if !acct.IsActive {
		return Line{}, fmt.Errorf("%w: %s", shared.ErrAccountInactive, acct.Code)
	}
	if err := shared.CheckScale(in.Amount); err != nil {
		return Line{}, err
	}
	if err := in.Dimensions.Validate(); err != nil {
		return Line{}, err
	}
	line := Line{
		BudgetID:    b.ID,
		LineNumber:  len(b.Lines) + 1,
		AccountID:   acct.ID,
		AccountCode: acct.Code,
		Amount:      in.Amount,
		Dimensions:  in.Dimensions.Clone(),
		Notes:       in.Notes,
	}
	b.Lines = append(b.Lines, line)
	b.Version++
	return line, nil
}

// RemoveLine drops line n and renumbers the rest.
func (b *Budget) RemoveLine(n int) error {
	if err := b.requireDraft("REMOVE_LINE"); err != nil {
		return err
	}
	idx := -1
	for i, l := range b.Lines {
		if l.LineNumber == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NotFound("budget_line", fmt.Sprintf("%d/%d", b.ID, n))
	}
	lines := make([]Line, 0, len(b.Lines)-1)
	lines = append(lines, b.Lines[:idx]...)
	lines = append(lines, b.Lines[idx+1:]...)
	for i := range lines {
		lines[i].LineNumber = i + 1
	}
	b.Lines = lines
	b.Version++
	return nil
}

// UpdateHeader applies descriptive changes while the budget is still open for review.
func (b *Budget) UpdateHeader(in HeaderInput) error {
	if b.Status != StatusDraft && b.Status != StatusSubmitted {
		return b.stateError("UPDATE")
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.Type != nil {
		b.Type = *in.Type
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	b.Version++
	return nil
}

// Submit sends a non-empty draft for approval.
func (b *Budget) Submit(at time.Time) error {
	if err := b.requireDraft(string(StatusSubmitted)); err != nil {
		return err
	}
	if len(b.Lines) == 0 {
		return fmt.Errorf("budget %s: %w", b.Code, shared.ErrEmptyBudget)
	}
	if err := b.moveTo(StatusSubmitted); err != nil {
		return err
	}
	b.SubmittedAt = &at
	return nil
}

// Approve records the approver of a submitted budget.
func (b *Budget) Approve(at time.Time, actorID int64) error {
	if err := b.moveTo(StatusApproved); err != nil {
		return err
	}
	b.ApprovedAt = &at
	b.ApprovedBy = &actorID
	return nil
}

// Reject sends a submitted budget back with the reason kept in notes.
func (b *Budget) Reject(reason string) error {
	if err := b.moveTo(StatusRejected); err != nil {
		return err
	}
	b.appendNote("Rejection", reason)
	return nil
}

// Activate makes an approved budget eligible for variance analysis.
func (b *Budget) Activate() error {
	return b.moveTo(StatusActive)
}

// Cancel abandons a draft.
func (b *Budget) Cancel(reason string) error {
	if err := b.moveTo(StatusCancelled); err != nil {
		return err
	}
	if reason != "" {
		b.appendNote("Cancellation", reason)
	}
	return nil
}

// Complete closes an active budget.
func (b *Budget) Complete() error {
	return b.moveTo(StatusCompleted)
}
