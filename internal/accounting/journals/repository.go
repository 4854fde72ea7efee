package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/db"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

// TxRepository exposes the operations available inside one transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, id int64) (Entry, error)
	GetEntryForUpdate(ctx context.Context, id int64) (Entry, error)
	GetEntryByNumber(ctx context.Context, number string) (Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) error
	InsertLine(ctx context.Context, entryID int64, line Line) (Line, error)
	ReplaceLines(ctx context.Context, entryID int64, lines []Line) error
	DeleteEntry(ctx context.Context, id int64) (int, error)
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error
	LinesByAccount(ctx context.Context, accountID int64) ([]PostedLine, error)
	TrialBalance(ctx context.Context) ([]TrialBalanceRow, error)
}

// Repository persists journal entries in Postgres.
type Repository struct {
	pool       *pgxpool.Pool
	maxRetries int
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, maxRetries int) *Repository {
	if maxRetries < 0 {
		maxRetries = db.DefaultMaxRetries
	}
	return &Repository{pool: pool, maxRetries: maxRetries}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction, replaying it on
// serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("journals repository not initialised")
	}
	return db.WithTxRetries(ctx, r.pool, r.maxRetries, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const entryColumns = `id, entry_number, entry_date, posting_date, entry_type, COALESCE(source_type, ''), source_document_id,
COALESCE(source_document_number, ''), description, notes, status, reversal_of_id, reversed_by_id, budget_period_id,
COALESCE(created_by, 0), posted_by, posted_at, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var sourceID *uuid.UUID
	err := row.Scan(&e.ID, &e.Number, &e.EntryDate, &e.PostingDate, &e.EntryType, &e.SourceType, &sourceID,
		&e.SourceDocumentNumber, &e.Description, &e.Notes, &e.Status, &e.ReversalOfID, &e.ReversedByID, &e.BudgetPeriodID,
		&e.CreatedBy, &e.PostedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if sourceID != nil {
		e.SourceDocumentID = *sourceID
	}
	return e, err
}

func (r *txRepository) InsertEntry(ctx context.Context, e Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, entry_date, entry_type, source_type, source_document_id,
source_document_number, description, notes, status, reversal_of_id, budget_period_id, created_by, total_debit, total_credit)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING id, created_at, updated_at`,
		e.Number, e.EntryDate, e.EntryType, nullString(string(e.SourceType)), nullUUID(e.SourceDocumentID),
		nullString(e.SourceDocumentNumber), e.Description, e.Notes, e.Status, e.ReversalOfID, e.BudgetPeriodID,
		nullInt(e.CreatedBy), e.TotalDebit(), e.TotalCredit())
	if err := row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if shared.IsUniqueViolation(err) {
			return Entry{}, &shared.DuplicateCodeError{Entity: entity, Code: e.Number}
		}
		return Entry{}, err
	}
	return e, nil
}

func (r *txRepository) getEntry(ctx context.Context, where string, arg any, lock bool) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}
	e, err := scanEntry(r.tx.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.NotFound(entity, arg)
		}
		return Entry{}, err
	}
	e.Lines, err = r.lines(ctx, e.ID)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *txRepository) GetEntry(ctx context.Context, id int64) (Entry, error) {
	return r.getEntry(ctx, "id=$1", id, false)
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (Entry, error) {
	return r.getEntry(ctx, "id=$1", id, true)
}

func (r *txRepository) GetEntryByNumber(ctx context.Context, number string) (Entry, error) {
	return r.getEntry(ctx, "entry_number=$1", number, false)
}

func (r *txRepository) lines(ctx context.Context, entryID int64) ([]Line, error) {
	rows, err := r.tx.Query(ctx, `SELECT l.id, l.entry_id, l.line_number, l.account_id, a.code, l.debit, l.credit, l.dimensions, l.description, l.notes
FROM journal_entry_lines l JOIN gl_accounts a ON a.id = l.account_id
WHERE l.entry_id=$1 ORDER BY l.line_number`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.EntryID, &l.LineNumber, &l.AccountID, &l.AccountCode, &l.Debit, &l.Credit, &l.Dimensions, &l.Description, &l.Notes); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *txRepository) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		add("status=$%d", filter.Status)
	}
	if !filter.From.IsZero() {
		add("entry_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("entry_date <= $%d", filter.To)
	}
	if filter.SourceType != "" {
		add("source_type=$%d", filter.SourceType)
	}
	if filter.SourceDocumentID != uuid.Nil {
		add("source_document_id=$%d", filter.SourceDocumentID)
	}
	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY entry_date DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) UpdateEntry(ctx context.Context, e Entry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$2, posting_date=$3, posted_by=$4, posted_at=$5,
reversed_by_id=$6, notes=$7, total_debit=$8, total_credit=$9, updated_at=NOW() WHERE id=$1`,
		e.ID, e.Status, e.PostingDate, e.PostedBy, e.PostedAt, e.ReversedByID, e.Notes, e.TotalDebit(), e.TotalCredit())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound(entity, e.ID)
	}
	return nil
}

func (r *txRepository) InsertLine(ctx context.Context, entryID int64, l Line) (Line, error) {
	l.EntryID = entryID
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entry_lines (entry_id, line_number, account_id, debit, credit, dimensions, description, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		entryID, l.LineNumber, l.AccountID, l.Debit, l.Credit, dimensionsJSON(l.Dimensions), l.Description, l.Notes).Scan(&l.ID)
	return l, err
}

// ReplaceLines makes lines the full set of entryID. Stored lines keep their id
// and take the new line number; lines without an id are inserted.
func (r *txRepository) ReplaceLines(ctx context.Context, entryID int64, lines []Line) error {
	keep := make([]int64, 0, len(lines))
	for _, l := range lines {
		if l.ID != 0 {
			keep = append(keep, l.ID)
		}
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1 AND NOT (id = ANY($2))`, entryID, keep); err != nil {
		return err
	}
	for i := range lines {
		if lines[i].ID != 0 {
			tag, err := r.tx.Exec(ctx, `UPDATE journal_entry_lines SET line_number=$3 WHERE id=$1 AND entry_id=$2`, lines[i].ID, entryID, lines[i].LineNumber)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return shared.NotFound("journal_entry_line", lines[i].ID)
			}
			lines[i].EntryID = entryID
			continue
		}
		saved, err := r.InsertLine(ctx, entryID, lines[i])
		if err != nil {
			return err
		}
		lines[i] = saved
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, id int64) (int, error) {
	var lines int
	if err := r.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entry_lines WHERE entry_id=$1`, id).Scan(&lines); err != nil {
		return 0, err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	if cmd.RowsAffected() == 0 {
		return 0, shared.NotFound(entity, id)
	}
	return lines, nil
}

func (r *txRepository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	a, err := accounts.ScanAccount(r.tx.QueryRow(ctx, `SELECT `+accounts.Columns+` FROM gl_accounts WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, shared.NotFound("gl_account", id)
	}
	return a, err
}

// ApplyBalanceDelta increments in place so concurrent posts never lose updates.
func (r *txRepository) ApplyBalanceDelta(ctx context.Context, accountID int64, delta decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE gl_accounts SET current_balance = current_balance + $2, updated_at=NOW() WHERE id=$1`, accountID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.NotFound("gl_account", accountID)
	}
	return nil
}

func (r *txRepository) LinesByAccount(ctx context.Context, accountID int64) ([]PostedLine, error) {
	return queryPostedLines(ctx, r.tx, `l.account_id=$1`, accountID)
}

func (r *txRepository) TrialBalance(ctx context.Context) ([]TrialBalanceRow, error) {
	rows, err := r.tx.Query(ctx, `SELECT a.id, a.code, a.normal_balance,
COALESCE(SUM(l.debit) FILTER (WHERE e.status IN ('POSTED','REVERSED')), 0),
COALESCE(SUM(l.credit) FILTER (WHERE e.status IN ('POSTED','REVERSED')), 0),
a.current_balance
FROM gl_accounts a
LEFT JOIN journal_entry_lines l ON l.account_id = a.id
LEFT JOIN journal_entries e ON e.id = l.entry_id
GROUP BY a.id, a.code, a.normal_balance, a.current_balance
ORDER BY a.code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TrialBalanceRow
	for rows.Next() {
		var row TrialBalanceRow
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.NormalBalance, &row.Debit, &row.Credit, &row.CurrentBalance); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryPostedLines(ctx context.Context, q querier, where string, args ...any) ([]PostedLine, error) {
	rows, err := q.Query(ctx, `SELECT e.id, e.entry_number, e.entry_date, e.status,
l.id, l.entry_id, l.line_number, l.account_id, a.code, l.debit, l.credit, l.dimensions, l.description, l.notes
FROM journal_entry_lines l
JOIN journal_entries e ON e.id = l.entry_id
JOIN gl_accounts a ON a.id = l.account_id
WHERE `+where+` ORDER BY e.entry_date, e.id, l.line_number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PostedLine
	for rows.Next() {
		var pl PostedLine
		if err := rows.Scan(&pl.EntryID, &pl.EntryNumber, &pl.EntryDate, &pl.EntryStatus,
			&pl.ID, &pl.Line.EntryID, &pl.LineNumber, &pl.AccountID, &pl.AccountCode, &pl.Debit, &pl.Credit, &pl.Dimensions, &pl.Description, &pl.Notes); err != nil {
			return nil, err
		}
		out = append(out, pl)
	}
	return out, rows.Err()
}

// PostedLines returns lines on accountID from POSTED entries dated within
// [from, to]. REVERSED originals are excluded.
func (r *Repository) PostedLines(ctx context.Context, accountID int64, from, to time.Time) ([]PostedLine, error) {
	return queryPostedLines(ctx, r.pool, `e.status = 'POSTED' AND l.account_id=$1 AND e.entry_date BETWEEN $2::date AND $3::date`, accountID, from, to)
}

// Imbalances lists posted entries whose stored lines do not balance.
func (r *Repository) Imbalances(ctx context.Context) ([]Imbalance, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.entry_number, SUM(l.debit), SUM(l.credit)
FROM journal_entries e JOIN journal_entry_lines l ON l.entry_id = e.id
WHERE e.status IN ('POSTED','REVERSED')
GROUP BY e.id, e.entry_number
HAVING SUM(l.debit) <> SUM(l.credit)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Imbalance
	for rows.Next() {
		var im Imbalance
		if err := rows.Scan(&im.EntryID, &im.Number, &im.Debit, &im.Credit); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// LastNumber returns the highest numeric suffix issued under prefix. It seeds
// the Redis sequence after a cache flush.
func (r *Repository) LastNumber(ctx context.Context, prefix string) (int64, error) {
	var last int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(SUBSTRING(entry_number FROM $2)::BIGINT), 0)
FROM journal_entries WHERE entry_number ~ ('^' || $1::text || '[0-9]+$')`, prefix, len(prefix)+1).Scan(&last)
	return last, err
}

func dimensionsJSON(s dimension.Set) dimension.Set {
	if s == nil {
		return dimension.Set{}
	}
	return s
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullUUID(v uuid.UUID) any {
	if v == uuid.Nil {
		return nil
	}
	return v
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
