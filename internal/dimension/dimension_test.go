package dimension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericKeys(t *testing.T) {
	assert.Equal(t, Key("dim_01"), Generic(1))
	assert.True(t, Generic(15).Valid())
	assert.False(t, Generic(16).Valid())
	assert.False(t, Generic(0).Valid())
	assert.False(t, Key("region").Valid())
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys(" department, COST_CENTER ,department,,dim_03")
	require.NoError(t, err)
	assert.Equal(t, []Key{Department, CostCenter, Generic(3)}, keys)

	_, err = ParseKeys("department,warehouse")
	assert.Error(t, err)
}

func TestSetMissingAndValidate(t *testing.T) {
	set := Set{Department: 4, Generic(2): 9}
	assert.Equal(t, []Key{CostCenter}, set.Missing([]Key{Department, CostCenter}))
	require.NoError(t, set.Validate())

	assert.Error(t, Set{Department: 0}.Validate())
	assert.Error(t, Set{"region": 1}.Validate())
}

func TestMatchesTreatsAbsentFilterKeysAsWildcard(t *testing.T) {
	keys := []Key{Department, CostCenter}
	filter := Set{Department: 10}

	assert.True(t, filter.Matches(Set{Department: 10, CostCenter: 3}, keys))
	assert.False(t, filter.Matches(Set{Department: 20}, keys))
	assert.False(t, filter.Matches(nil, keys))
	assert.True(t, Set{}.Matches(Set{Department: 20}, keys))
	// Keys outside the configured set are ignored.
	assert.True(t, Set{Department: 10, Person: 5}.Matches(Set{Department: 10, Person: 6}, keys))
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := Set{Department: 1}
	next := base.With(CostCenter, 2)
	assert.False(t, base.Has(CostCenter))
	assert.True(t, next.Has(CostCenter))
	assert.Nil(t, Set(nil).Clone())
}
