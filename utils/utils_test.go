package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
	for _, r := range otp {
		assert.True(t, r >= '0' && r <= '9', "OTP must be numeric, got %q", otp)
	}
}

func TestNewTicketNumber(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tn, err := NewTicketNumber(now)
	require.NoError(t, err)

	parts := strings.Split(tn, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TKT", parts[0])
	assert.Equal(t, strings.ToUpper(tn), tn)
	assert.NotEmpty(t, parts[1])
	assert.NotEmpty(t, parts[2])
}

func TestNewTicketNumber_Unique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		tn, err := NewTicketNumber(now)
		require.NoError(t, err)
		assert.False(t, seen[tn], "duplicate ticket number %s", tn)
		seen[tn] = true
	}
}

func TestNewBookingRef(t *testing.T) {
	ref, err := NewBookingRef(time.Now())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "GT-"))

	parts := strings.Split(ref, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 4) // 2 random bytes -> 4 hex chars
	assert.Equal(t, strings.ToUpper(ref), ref)
}
