package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintTicketNumbers(t *testing.T) {
	service := &PaymentService{
		now: func() time.Time { return time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC) },
	}

	numbers, err := service.mintTicketNumbers(50)
	require.NoError(t, err)
	require.Len(t, numbers, 50)

	seen := map[string]bool{}
	for _, tn := range numbers {
		assert.True(t, strings.HasPrefix(tn, "TKT-"), "ticket number %q missing prefix", tn)
		assert.False(t, seen[tn], "duplicate ticket number %q", tn)
		seen[tn] = true
	}
}

func TestMintTicketNumbers_Zero(t *testing.T) {
	service := &PaymentService{now: time.Now}

	numbers, err := service.mintTicketNumbers(0)
	require.NoError(t, err)
	assert.Empty(t, numbers)
}
