package mappings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

type stubRepo struct {
	rows map[string]string
	err  error
}

func (s stubRepo) Get(ctx context.Context, module, key string) (AccountMapping, error) {
	if s.err != nil {
		return AccountMapping{}, s.err
	}
	code, ok := s.rows[module+"/"+key]
	if !ok {
		return AccountMapping{}, shared.NotFound("account_mapping", key)
	}
	return AccountMapping{Module: module, Key: key, AccountCode: code}, nil
}

func TestResolverPrefersStoredMapping(t *testing.T) {
	r := NewResolver(stubRepo{rows: map[string]string{"SALES/REVENUE": "4100"}})
	code, err := r.Code(context.Background(), ModuleSales, KeyRevenue)
	require.NoError(t, err)
	assert.Equal(t, "4100", code)

	code, err = r.Code(context.Background(), ModuleSales, KeyVAT)
	require.NoError(t, err)
	assert.Equal(t, "2410", code)
}

func TestResolverDefaultsAndErrors(t *testing.T) {
	code, err := NewResolver(nil).Code(context.Background(), "payments", KeyCash)
	require.NoError(t, err)
	assert.Equal(t, "1000", code)

	_, err = NewResolver(nil).Code(context.Background(), ModuleSales, "FREIGHT")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	boom := errors.New("db down")
	_, err = NewResolver(stubRepo{err: boom}).Code(context.Background(), ModuleSales, KeyRevenue)
	assert.ErrorIs(t, err, boom)
}
