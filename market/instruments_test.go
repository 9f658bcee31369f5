package market

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractValue(t *testing.T) {
	t.Parallel()

	es, ok := Lookup("es1")
	require.True(t, ok)

	// 3 points on 6 ES contracts.
	assert.InDelta(t, 900.0, es.Value(100, 103, 6), 1e-9)
	assert.InDelta(t, -900.0, es.Value(100, 103, -6), 1e-9)
	assert.InDelta(t, 50.0, es.Multiplier(), 1e-12)

	spy := Instruments["SPY"]
	assert.InDelta(t, 250.0, spy.Value(100, 102.5, 100), 1e-9)
	assert.InDelta(t, 250.0, spy.Value(102.5, 100, -100), 1e-9)
}

func TestContractBasis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 12000.0, Instruments["ES1"].Basis(4500))
	assert.Equal(t, 412.5, Instruments["SPY"].Basis(412.5))
}

func TestContractExposure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 200000.0, Instruments["ES1"].Exposure(4000))
	assert.Equal(t, 412.5, Instruments["SPY"].Exposure(412.5))
}

func TestContractValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		c       ContractSpec
		wantErr bool
	}{
		{name: "etf", c: Instruments["SPY"]},
		{name: "future", c: Instruments["ES1"]},
		{name: "zero tick size", c: ContractSpec{Symbol: "X", Kind: ETF, TickSize: 0, TickValue: 1}, wantErr: true},
		{name: "negative tick value", c: ContractSpec{Symbol: "X", Kind: ETF, TickSize: 1, TickValue: -1}, wantErr: true},
		{name: "future without margin", c: ContractSpec{Symbol: "X", Kind: Future, TickSize: 0.25, TickValue: 12.5}, wantErr: true},
		{name: "unknown kind", c: ContractSpec{Symbol: "X", Kind: "BOND", TickSize: 1, TickValue: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidContract))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind(" future ")
	require.NoError(t, err)
	assert.Equal(t, Future, k)

	_, err = ParseKind("crypto")
	assert.ErrorIs(t, err, ErrInvalidContract)
}
