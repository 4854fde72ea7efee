package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitionErrorMatchesBudgetSentinel(t *testing.T) {
	err := fmt.Errorf("budget: add line: %w", &StateTransitionError{Entity: "budget", ID: 7, From: "SUBMITTED", To: "SUBMITTED"})
	assert.True(t, errors.Is(err, ErrInvalidStateTransition))
	assert.True(t, errors.Is(err, ErrInvalidBudgetState))

	journalErr := &StateTransitionError{Entity: "journal_entry", ID: 1, From: "DRAFT", To: "POSTED"}
	assert.True(t, errors.Is(journalErr, ErrInvalidStateTransition))
	assert.False(t, errors.Is(journalErr, ErrInvalidBudgetState))
}

func TestUnbalancedErrorCarriesSums(t *testing.T) {
	err := fmt.Errorf("journals: validate: %w", &UnbalancedError{EntryID: 3, Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(90)})
	require.True(t, errors.Is(err, ErrUnbalancedEntry))

	var unbalanced *UnbalancedError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, "100", unbalanced.Debit.String())
	assert.Equal(t, "90", unbalanced.Credit.String())
	assert.Contains(t, err.Error(), "debit 100.0000, credit 90.0000")
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err    error
		target error
	}{
		{NotFound("gl_account", "9999"), ErrNotFound},
		{&MissingDimensionError{Dimension: "department", AccountCode: "6100"}, ErrMissingRequiredDimension},
		{&DirectPostingError{AccountCode: "6000"}, ErrDirectPostingNotAllowed},
		{&DuplicateCodeError{Entity: "budget", Code: "BUD000001"}, ErrDuplicateCode},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.target, tc.err.Error())
	}
}

func TestCheckScale(t *testing.T) {
	for _, ok := range []string{"0", "12", "-500", "0.0001", "10.1230", "99999.9999"} {
		assert.NoError(t, CheckScale(decimal.RequireFromString(ok)), ok)
	}
	for _, bad := range []string{"0.00005", "1.23456", "-0.00001"} {
		assert.ErrorIs(t, CheckScale(decimal.RequireFromString(bad)), ErrInvalidAmount, bad)
	}
}
