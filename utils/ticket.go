package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// base36 random suffix space, roughly 6 characters.
var suffixMax = big.NewInt(36 * 36 * 36 * 36 * 36 * 36)

func base36Suffix() (string, error) {
	n, err := rand.Int(rand.Reader, suffixMax)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(n.Text(36)), nil
}

// hexCode builds an uppercased hex string from n random bytes.
func hexCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateOTP returns a numeric one-time code of the given length. Each digit
// is drawn independently so the distribution stays uniform.
func GenerateOTP(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte('0' + byte(n.Int64()))
	}
	return sb.String(), nil
}

// NewTicketNumber mints a ticket number of the form TKT-<base36 millis>-<suffix>.
// The timestamp prefix keeps numbers sortable, the random suffix keeps them
// unique across tickets minted in the same millisecond.
func NewTicketNumber(now time.Time) (string, error) {
	suffix, err := base36Suffix()
	if err != nil {
		return "", err
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("TKT-%s-%s", ts, suffix), nil
}

// NewBookingRef mints a human-readable booking reference, GT-<base36 millis>-<code>.
func NewBookingRef(now time.Time) (string, error) {
	code, err := hexCode(2)
	if err != nil {
		return "", err
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("GT-%s-%s", ts, code), nil
}
