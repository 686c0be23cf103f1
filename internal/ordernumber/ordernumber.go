// Package ordernumber issues the human-readable order identifiers of the
// shape ORD-YYYYMMDD-NNNN, where NNNN is a zero-padded sequence scoped to
// one calendar day. Sequences are computed optimistically from the highest
// number issued so far; the unique index on orders.order_number is the
// backstop against concurrent issuance.
package ordernumber

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const prefix = "ORD"

// DayPrefix returns the "ORD-YYYYMMDD-" prefix for the given day, suitable
// for a prefix match against previously issued numbers.
func DayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, day.Format("20060102"))
}

// Format renders an order number for the given day and sequence.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s%04d", DayPrefix(day), seq)
}

// Sequence extracts the numeric sequence from an order number issued on the
// given day. It fails when the number does not carry that day's prefix.
func Sequence(number string, day time.Time) (int, error) {
	dayPrefix := DayPrefix(day)
	if !strings.HasPrefix(number, dayPrefix) {
		return 0, fmt.Errorf("order number %q does not match day prefix %q", number, dayPrefix)
	}
	seq, err := strconv.Atoi(number[len(dayPrefix):])
	if err != nil {
		return 0, fmt.Errorf("order number %q has a malformed sequence: %w", number, err)
	}
	return seq, nil
}

// Next computes the order number following the latest one issued on the
// given day. An empty latest number starts the day at sequence 1.
func Next(latest string, day time.Time) (string, error) {
	if latest == "" {
		return Format(day, 1), nil
	}
	seq, err := Sequence(latest, day)
	if err != nil {
		return "", err
	}
	return Format(day, seq+1), nil
}
