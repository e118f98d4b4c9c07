package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"1", Unit},
		{"1.0", Unit},
		{"1.5", Unit + Unit/2},
		{"0.5", Unit / 2},
		{".25", Unit / 4},
		{"1000", 1000 * Unit},
		{"0.000000001", 1},
		{" 2.0 ", 2 * Unit},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, "input=%q", tc.in)
		assert.Equal(t, tc.want, got, "input=%q", tc.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", ".", "1.0000000001", "1e3", "99999999999999"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input=%q", in)
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "1.5", (Unit + Unit/2).String())
	assert.Equal(t, "5", (5 * Unit).String())
	assert.Equal(t, "0", Amount(0).String())
	assert.Equal(t, "0.000000001", Amount(1).String())
	assert.Equal(t, "-2", (-2 * Unit).String())
}

func TestAmount_JSONRoundTripIsExact(t *testing.T) {
	payload := FundsDepositedPayload{ID: 1, Amount: MustParseAmount("1.5"), NewTotal: MustParseAmount("3.25")}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":"1.5"`)
	assert.Contains(t, string(b), `"new_total":"3.25"`)
}

func TestSumAmounts(t *testing.T) {
	total, ok := SumAmounts(Unit, 2*Unit, MustParseAmount("1.5"), MustParseAmount("0.5"))
	require.True(t, ok)
	assert.Equal(t, 5*Unit, total)

	_, ok = SumAmounts(Amount(1<<62), Amount(1<<62))
	assert.False(t, ok, "overflow should be reported")
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("0xABCDEF0123456789abcdef0123456789ABCDEF01")
	require.NoError(t, err)
	assert.Equal(t, Identity("0xabcdef0123456789abcdef0123456789abcdef01"), id)
	assert.Equal(t, "0xabcd…ef01", id.Short())

	for _, bad := range []string{"", "0x123", "abcdef0123456789abcdef0123456789abcdef0123", "0xZZcdef0123456789abcdef0123456789abcdef01"} {
		_, err := ParseIdentity(bad)
		assert.Error(t, err, "input=%q", bad)
	}
	assert.True(t, ZeroIdentity.IsZero())
	assert.True(t, Identity("").IsZero())
	assert.False(t, id.IsZero())
}

func TestAmount_UnmarshalJSONAcceptsNumbersAndStrings(t *testing.T) {
	var body struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.5","b":2.25}`), &body))
	assert.Equal(t, MustParseAmount("1.5"), body.A)
	assert.Equal(t, MustParseAmount("2.25"), body.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1e3}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"-1"}`), &body))
}
