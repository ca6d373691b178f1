package id

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsTwentyFourHex(t *testing.T) {
	v := New()

	assert.Len(t, v.String(), 24)
	assert.False(t, IsNil(v))

	parsed, err := Parse(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestNew_TimeOrdered(t *testing.T) {
	first := New()
	time.Sleep(2 * time.Millisecond)
	second := New()

	assert.Equal(t, -1, first.Compare(second))
}

func TestParse_Rejects(t *testing.T) {
	cases := []string{
		"",
		"abc",
		"zzzzzzzzzzzzzzzzzzzzzzzz",
		"0123456789abcdef012345678",
		"01234567-89ab-cdef-0123-456789abcdef",
	}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, c)
	}
}

func TestParse_UppercaseNormalized(t *testing.T) {
	v, err := Parse("0123456789ABCDEF01234567")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef01234567", v.String())
}

func TestJSON(t *testing.T) {
	v := MustParse("65f1c0ffee0000000000abcd")

	raw, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: v})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"65f1c0ffee0000000000abcd"}`, string(raw))

	var back struct {
		ID ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, v, back.ID)
}

func TestScanValue(t *testing.T) {
	v := New()
	dv, err := v.Value()
	require.NoError(t, err)

	var back ID
	require.NoError(t, back.Scan(dv))
	assert.Equal(t, v, back)

	require.NoError(t, back.Scan(nil))
	assert.True(t, IsNil(back))
}
