package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "9:00", want: "9:00"},
		{name: "zero padded", input: "09:00", want: "9:00"},
		{name: "postgres time", input: "09:00:00", want: "9:00"},
		{name: "afternoon", input: "18:00", want: "18:00"},
		{name: "spaces", input: " 10:30 ", want: "10:30"},
		{name: "single digit minutes", input: "9:5", wantErr: true},
		{name: "hour overflow", input: "24:00", wantErr: true},
		{name: "minute overflow", input: "10:60", wantErr: true},
		{name: "garbage", input: "ten", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeStringEqualityIgnoresPadding(t *testing.T) {
	assert.Equal(t, MustTimeString("09:00"), MustTimeString("9:00"))

	set := map[TimeString]struct{}{MustTimeString("09:00:00"): {}}
	_, ok := set[MustTimeString("9:00")]
	assert.True(t, ok)
}

func TestTimeStringAddMinutes(t *testing.T) {
	start := MustTimeString("10:00")

	end, err := start.AddMinutes(60)
	require.NoError(t, err)
	assert.Equal(t, "11:00", end.String())
	assert.True(t, start.IsBefore(end))
	assert.True(t, end.IsAfter(start))

	_, err = MustTimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrTimeOverflow)
}

func TestTimeStringScanAndValue(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan([]byte("09:00:00")))
	assert.Equal(t, "9:00", ts.String())

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, "14:00", ts.String())

	v, err := MustTimeString("9:00").Value()
	require.NoError(t, err)
	assert.Equal(t, "09:00:00", v)

	assert.Error(t, ts.Scan(42))
}

func TestTimeStringJSON(t *testing.T) {
	data, err := MustTimeString("09:00").MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"9:00"`, string(data))

	var ts TimeString
	require.NoError(t, ts.UnmarshalJSON([]byte(`"13:00"`)))
	assert.Equal(t, "13:00", ts.String())
}

func TestTimeStringOn(t *testing.T) {
	loc := time.FixedZone("ALMT", 5*3600)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	got := MustTimeString("10:00").On(date, loc)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, loc), got)
}
