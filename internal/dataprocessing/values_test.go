package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"45123", 45123, false},
		{"45,123", 45123, false},
		{" 1,234,567 ", 1234567, false},
		{"45123.0", 45123, false},
		{"4.5123E+04", 45123, false},
		{"0", 0, false},
		{"12 345", 12345, false},
		{"", 0, true},
		{"   ", 0, true},
		{"-5", 0, true},
		{"12.5", 0, true},
		{"n/a", 0, true},
		{"NaN", 0, true},
		{"9223372036854775807", 9223372036854775807, false},
		{"9223372036854775808.0", 0, true},
		{"1e19", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCountOverflowIsOutOfRange(t *testing.T) {
	_, err := parseCount("9223372036854775808.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestParseTurnout(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		percent bool
		want    float64
		wantErr bool
	}{
		{"fraction", "0.672", false, 0.672, false},
		{"percent scale", "67.2", true, 0.672, false},
		{"percent sign", "67.2%", false, 0.672, false},
		{"percent sign with space", " 50 % ", false, 0.5, false},
		{"whole", "1", false, 1, false},
		{"empty", "", false, 0, true},
		{"text", "high", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTurnout(tt.raw, tt.percent)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
