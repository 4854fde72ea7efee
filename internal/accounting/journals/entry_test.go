package journals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusDraft, StatusValidated, true},
		{StatusDraft, StatusDeleted, true},
		{StatusDraft, StatusPosted, false},
		{StatusValidated, StatusPosted, true},
		{StatusValidated, StatusDraft, false},
		{StatusPosted, StatusReversed, true},
		{StatusPosted, StatusDeleted, false},
		{StatusReversed, StatusPosted, false},
		{StatusDeleted, StatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTotalsAreFolds(t *testing.T) {
	e := Entry{Lines: []Line{
		{Debit: amount(70)},
		{Debit: amount(30)},
		{Credit: amount(100)},
	}}
	assert.True(t, e.TotalDebit().Equal(amount(100)))
	assert.True(t, e.TotalCredit().Equal(amount(100)))
	assert.True(t, e.IsBalanced())
	assert.True(t, e.Lines[0].NetAmount().Equal(amount(70)))
	assert.True(t, e.Lines[2].NetAmount().Equal(amount(-100)))
}
