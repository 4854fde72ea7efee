package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Numberer hands out entry numbers.
type Numberer interface {
	Next(ctx context.Context) (string, error)
}

// EventRecorder counts ledger lifecycle events (metrics).
type EventRecorder interface {
	RecordLedgerEvent(action string)
}

// Service coordinates the journal entry lifecycle.
type Service struct {
	repo     RepositoryPort
	numberer Numberer
	audit    shared.AuditPort
	events   EventRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the journal engine. audit may be nil.
func NewService(repo RepositoryPort, numberer Numberer, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, numberer: numberer, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithEvents attaches a metrics recorder.
func (s *Service) WithEvents(events EventRecorder) {
	s.events = events
}

// CreateEntry opens a numbered DRAFT entry.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = s.insertDraft(ctx, tx, draftFromInput(input))
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("journal entry created", slog.Int64("entry_id", entry.ID), slog.String("number", entry.Number))
	return entry, nil
}

func draftFromInput(input CreateEntryInput) Entry {
	return Entry{
		EntryDate:            input.EntryDate,
		EntryType:            input.EntryType,
		SourceType:           input.SourceType,
		SourceDocumentID:     input.SourceDocumentID,
		SourceDocumentNumber: input.SourceDocumentNumber,
		Description:          input.Description,
		Notes:                input.Notes,
		Status:               StatusDraft,
		BudgetPeriodID:       input.BudgetPeriodID,
		CreatedBy:            input.CreatedBy,
	}
}

func (s *Service) insertDraft(ctx context.Context, tx TxRepository, draft Entry) (Entry, error) {
	number, err := s.numberer.Next(ctx)
	if err != nil {
		return Entry{}, err
	}
	draft.Number = number
	draft.Status = StatusDraft
	lines := draft.Lines
	draft.Lines = nil
	inserted, err := tx.InsertEntry(ctx, draft)
	if err != nil {
		return Entry{}, fmt.Errorf("journals: insert entry: %w", err)
	}
	if len(lines) > 0 {
		for i := range lines {
			lines[i].EntryID = inserted.ID
		}
		if err := tx.ReplaceLines(ctx, inserted.ID, lines); err != nil {
			return Entry{}, err
		}
		inserted.Lines = lines
	}
	return inserted, nil
}

// AddLine appends a line to a DRAFT entry.
func (s *Service) AddLine(ctx context.Context, entryID int64, input LineInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.addLine(ctx, tx, &current, input); err != nil {
			return err
		}
		entry = current
		return nil
	})
	return entry, err
}

func (s *Service) addLine(ctx context.Context, tx TxRepository, entry *Entry, input LineInput) error {
	if err := entry.requireDraft("ADD_LINE"); err != nil {
		return err
	}
	acct, err := tx.GetAccount(ctx, input.AccountID)
	if err != nil {
		return err
	}
	line, err := entry.AddLine(acct, input)
	if err != nil {
		return err
	}
	saved, err := tx.InsertLine(ctx, entry.ID, line)
	if err != nil {
		return fmt.Errorf("journals: insert line: %w", err)
	}
	entry.Lines[len(entry.Lines)-1] = saved
	return tx.UpdateEntry(ctx, *entry)
}

// RemoveLine deletes line lineID from a DRAFT entry and renumbers the rest.
// Remaining lines keep their ids.
func (s *Service) RemoveLine(ctx context.Context, entryID, lineID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.RemoveLineByID(lineID); err != nil {
			return err
		}
		if err := tx.ReplaceLines(ctx, current.ID, current.Lines); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		entry = current
		return nil
	})
	return entry, err
}

// Validate moves a DRAFT to VALIDATED when it is balanced and non-empty.
func (s *Service) Validate(ctx context.Context, entryID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.Validate(); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.recordEvent("validate")
	return entry, nil
}

// Post applies a VALIDATED entry to account balances.
func (s *Service) Post(ctx context.Context, entryID, actorID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.post(ctx, tx, &current, actorID); err != nil {
			return err
		}
		entry = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("journal entry posted", slog.Int64("entry_id", entry.ID), slog.String("number", entry.Number),
		slog.String("total", entry.TotalDebit().StringFixed(2)))
	s.recordEvent("post")
	s.recordAudit(ctx, actorID, "journal.post", entry.ID, map[string]any{
		"number":       entry.Number,
		"total_debit":  entry.TotalDebit().String(),
		"total_credit": entry.TotalCredit().String(),
	})
	return entry, nil
}

// post assumes entry is locked inside tx.
func (s *Service) post(ctx context.Context, tx TxRepository, entry *Entry, actorID int64) error {
	if err := entry.MarkPosted(s.now(), actorID); err != nil {
		return err
	}
	for _, line := range entry.Lines {
		acct, err := tx.GetAccount(ctx, line.AccountID)
		if err != nil {
			return err
		}
		delta := acct.BalanceDelta(line.NetAmount())
		if delta.IsZero() {
			continue
		}
		if err := tx.ApplyBalanceDelta(ctx, acct.ID, delta); err != nil {
			return fmt.Errorf("journals: apply balance to %s: %w", acct.Code, err)
		}
	}
	return tx.UpdateEntry(ctx, *entry)
}

// PostJournal creates, fills, validates and posts an entry atomically.
func (s *Service) PostJournal(ctx context.Context, input PostingInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		draft, err := s.insertDraft(ctx, tx, draftFromInput(input.Entry))
		if err != nil {
			return err
		}
		for _, line := range input.Lines {
			if err := s.addLine(ctx, tx, &draft, line); err != nil {
				return err
			}
		}
		if err := draft.Validate(); err != nil {
			return err
		}
		if err := s.post(ctx, tx, &draft, input.ActorID); err != nil {
			return err
		}
		entry = draft
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("journal entry posted", slog.Int64("entry_id", entry.ID), slog.String("number", entry.Number),
		slog.String("source_type", string(entry.SourceType)))
	s.recordEvent("post")
	s.recordAudit(ctx, input.ActorID, "journal.post", entry.ID, map[string]any{
		"number":      entry.Number,
		"source_type": string(entry.SourceType),
		"source_id":   entry.SourceDocumentID.String(),
	})
	return entry, nil
}

// Reverse posts a mirrored REVERSAL entry and marks the original REVERSED.
func (s *Service) Reverse(ctx context.Context, input ReverseInput) (Entry, error) {
	if err := input.Validate(); err != nil {
		return Entry{}, err
	}
	date := s.now()
	if input.Date != nil {
		date = *input.Date
	}
	var reversal Entry
	var original Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, input.EntryID)
		if err != nil {
			return err
		}
		draft, err := current.Reversal(date, input.Reason, input.ActorID)
		if err != nil {
			return err
		}
		rev, err := s.insertDraft(ctx, tx, draft)
		if err != nil {
			return err
		}
		if err := rev.Validate(); err != nil {
			return err
		}
		if err := s.post(ctx, tx, &rev, input.ActorID); err != nil {
			return err
		}
		if err := current.MarkReversed(rev.ID); err != nil {
			return err
		}
		if err := tx.UpdateEntry(ctx, current); err != nil {
			return err
		}
		reversal = rev
		original = current
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	s.logger.Info("journal entry reversed", slog.Int64("entry_id", original.ID), slog.Int64("reversal_id", reversal.ID))
	s.recordEvent("reverse")
	s.recordAudit(ctx, input.ActorID, "journal.reverse", original.ID, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
		"reason":          input.Reason,
	})
	return reversal, nil
}

// Delete removes a DRAFT entry with its lines and reports how many lines went.
func (s *Service) Delete(ctx context.Context, entryID, actorID int64) (int, error) {
	var removed int
	var number string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if err := current.MarkDeleted(); err != nil {
			return err
		}
		removed, err = tx.DeleteEntry(ctx, current.ID)
		number = current.Number
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("journal entry deleted", slog.Int64("entry_id", entryID), slog.Int("lines", removed))
	s.recordEvent("delete")
	s.recordAudit(ctx, actorID, "journal.delete", entryID, map[string]any{"number": number, "lines": removed})
	return removed, nil
}

// Get loads an entry with its lines.
func (s *Service) Get(ctx context.Context, entryID int64) (Entry, error) {
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntry(ctx, entryID)
		return err
	})
	return entry, err
}

// GetByNumber loads an entry by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Entry, error) {
	if number == "" {
		return Entry{}, errors.New("journals: number required")
	}
	var entry Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entry, err = tx.GetEntryByNumber(ctx, number)
		return err
	})
	return entry, err
}

// List returns entry headers matching filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	var entries []Entry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		entries, err = tx.ListEntries(ctx, filter)
		return err
	})
	return entries, err
}

// LinesByAccount returns every line booked on accountID with its entry header.
func (s *Service) LinesByAccount(ctx context.Context, accountID int64) ([]PostedLine, error) {
	var lines []PostedLine
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		lines, err = tx.LinesByAccount(ctx, accountID)
		return err
	})
	return lines, err
}

// TrialBalance aggregates posted activity per account.
func (s *Service) TrialBalance(ctx context.Context) ([]TrialBalanceRow, error) {
	var rows []TrialBalanceRow
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		rows, err = tx.TrialBalance(ctx)
		return err
	})
	return rows, err
}

func (s *Service) recordEvent(action string) {
	if s.events != nil {
		s.events.RecordLedgerEvent(action)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entryID),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("journal audit", slog.String("action", action), slog.Any("error", err))
	}
}
