package journals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

const entity = "journal_entry"

var transitions = map[Status][]Status{
	StatusDraft:     {StatusValidated, StatusDeleted},
	StatusValidated: {StatusPosted},
	StatusPosted:    {StatusReversed},
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

func (e *Entry) moveTo(to Status) error {
	if !CanTransition(e.Status, to) {
		return &shared.StateTransitionError{Entity: entity, ID: e.ID, From: string(e.Status), To: string(to)}
	}
	e.Status = to
	return nil
}

func (e *Entry) requireDraft(action string) error {
	if e.Status != StatusDraft {
		return &shared.StateTransitionError{Entity: entity, ID: e.ID, From: string(e.Status), To: action}
	}
	return nil
}

// CheckAccount verifies an account may receive a line carrying dims.
func CheckAccount(acct accounts.Account, dims dimension.Set) error {
	if !acct.IsActive {
		return fmt.Errorf("%w: %s", shared.ErrAccountInactive, acct.Code)
	}
	if !acct.AllowDirectPosting {
		return &shared.DirectPostingError{AccountCode: acct.Code}
	}
	if missing := dims.Missing(acct.RequiredDimensions()); len(missing) > 0 {
		return &shared.MissingDimensionError{Dimension: string(missing[0]), AccountCode: acct.Code}
	}
	return nil
}

func checkAmounts(debit, credit decimal.Decimal) error {
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("%w: debit and credit must not be negative", shared.ErrInvalidAmount)
	}
	if debit.IsZero() && credit.IsZero() {
		return fmt.Errorf("%w: line needs a debit or credit amount", shared.ErrInvalidAmount)
	}
	if err := shared.CheckScale(debit); err != nil {
		return err
	}
	return shared.CheckScale(credit)
}

// AddLine appends a line on acct. Only drafts accept lines.
func (e *Entry) AddLine(acct accounts.Account, in LineInput) (Line, error) {
	if err := e.requireDraft("ADD_LINE"); err != nil {
		return Line{}, err
	}
	if err := in.Dimensions.Validate(); err != nil {
		return Line{}, err
	}
	if err := CheckAccount(acct, in.Dimensions); err != nil {
		return Line{}, err
	}
	if err := checkAmounts(in.Debit, in.Credit); err != nil {
		return Line{}, err
	}
	line := Line{
		EntryID:     e.ID,
		LineNumber:  len(e.Lines) + 1,
		AccountID:   acct.ID,
		AccountCode: acct.Code,
		Debit:       in.Debit,
		Credit:      in.Credit,
		Dimensions:  in.Dimensions.Clone(),
		Description: in.Description,
		Notes:       in.Notes,
	}
	e.Lines = append(e.Lines, line)
	return line, nil
}

// RemoveLineByID drops the line stored under lineID and renumbers the rest.
func (e *Entry) RemoveLineByID(lineID int64) error {
	if err := e.requireDraft("REMOVE_LINE"); err != nil {
		return err
	}
	for _, l := range e.Lines {
		if l.ID == lineID {
			return e.RemoveLine(l.LineNumber)
		}
	}
	return shared.NotFound("journal_entry_line", fmt.Sprintf("%d/id %d", e.ID, lineID))
}

// RemoveLine drops line n and renumbers the rest contiguously from 1.
func (e *Entry) RemoveLine(n int) error {
	if err := e.requireDraft("REMOVE_LINE"); err != nil {
		return err
	}
	idx := -1
	for i, l := range e.Lines {
		if l.LineNumber == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return shared.NotFound("journal_entry_line", fmt.Sprintf("%d/%d", e.ID, n))
	}
	lines := make([]Line, 0, len(e.Lines)-1)
	lines = append(lines, e.Lines[:idx]...)
	lines = append(lines, e.Lines[idx+1:]...)
	for i := range lines {
		lines[i].LineNumber = i + 1
	}
	e.Lines = lines
	return nil
}

func (e *Entry) checkBalance() error {
	if len(e.Lines) == 0 {
		return fmt.Errorf("journal entry %d: %w", e.ID, shared.ErrEmptyEntry)
	}
	if !e.IsBalanced() {
		return &shared.UnbalancedError{EntryID: e.ID, Debit: e.TotalDebit(), Credit: e.TotalCredit()}
	}
	return nil
}

// Validate moves a balanced, non-empty draft to VALIDATED.
func (e *Entry) Validate() error {
	if err := e.requireDraft(string(StatusValidated)); err != nil {
		return err
	}
	if err := e.checkBalance(); err != nil {
		return err
	}
	return e.moveTo(StatusValidated)
}

// MarkPosted re-checks balance and stamps posting metadata.
func (e *Entry) MarkPosted(at time.Time, actorID int64) error {
	if e.Status != StatusValidated {
		return &shared.StateTransitionError{Entity: entity, ID: e.ID, From: string(e.Status), To: string(StatusPosted)}
	}
	if err := e.checkBalance(); err != nil {
		return err
	}
	if err := e.moveTo(StatusPosted); err != nil {
		return err
	}
	postingDate := at
	e.PostingDate = &postingDate
	e.PostedAt = &at
	if actorID != 0 {
		e.PostedBy = &actorID
	}
	return nil
}

// Reversal builds a draft REVERSAL entry mirroring e. The caller numbers,
// persists and posts it, then calls MarkReversed.
func (e *Entry) Reversal(date time.Time, reason string, actorID int64) (Entry, error) {
	if e.Status != StatusPosted {
		return Entry{}, &shared.StateTransitionError{Entity: entity, ID: e.ID, From: string(e.Status), To: string(StatusReversed)}
	}
	originalID := e.ID
	rev := Entry{
		EntryDate:            date,
		EntryType:            EntryTypeReversal,
		SourceType:           e.SourceType,
		SourceDocumentID:     e.SourceDocumentID,
		SourceDocumentNumber: e.SourceDocumentNumber,
		Description:          fmt.Sprintf("Reversal of %s: %s", e.Number, reason),
		Status:               StatusDraft,
		ReversalOfID:         &originalID,
		BudgetPeriodID:       e.BudgetPeriodID,
		CreatedBy:            actorID,
		Lines:                make([]Line, 0, len(e.Lines)),
	}
	for i, l := range e.Lines {
		rev.Lines = append(rev.Lines, Line{
			LineNumber:  i + 1,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Dimensions:  l.Dimensions.Clone(),
			Description: l.Description,
			Notes:       l.Notes,
		})
	}
	return rev, nil
}

// MarkReversed links e to the reversal that cancelled it.
func (e *Entry) MarkReversed(reversalID int64) error {
	if err := e.moveTo(StatusReversed); err != nil {
		return err
	}
	e.ReversedByID = &reversalID
	return nil
}

// MarkDeleted moves a draft to DELETED.
func (e *Entry) MarkDeleted() error {
	return e.moveTo(StatusDeleted)
}
