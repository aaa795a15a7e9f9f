package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SequenceSource hands out strictly increasing values per counter key.
type SequenceSource interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

// Numberer issues invoice numbers of the form PREFIX-YYYY-NNNN. The sequence
// restarts every calendar year and is zero-padded to four digits.
type Numberer struct {
	Counter  SequenceSource
	Prefix   string
	Location *time.Location
}

// Next allocates the next number for the year containing at.
func (n *Numberer) Next(ctx context.Context, at time.Time) (string, error) {
	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	year := at.In(loc).Year()

	seq, err := n.Counter.NextSequence(ctx, fmt.Sprintf("%s-%d", n.Prefix, year))
	if err != nil {
		return "", fmt.Errorf("allocate invoice number: %w", err)
	}
	return FormatNumber(n.Prefix, year, seq), nil
}

func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// ParseNumber splits an invoice number into its prefix, year and sequence.
func ParseNumber(number string) (string, int, int64, error) {
	idx := strings.LastIndex(number, "-")
	if idx <= 0 {
		return "", 0, 0, fmt.Errorf("malformed invoice number %q", number)
	}
	seq, err := strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed invoice sequence in %q", number)
	}
	rest := number[:idx]
	idx = strings.LastIndex(rest, "-")
	if idx <= 0 {
		return "", 0, 0, fmt.Errorf("malformed invoice number %q", number)
	}
	year, err := strconv.Atoi(rest[idx+1:])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed invoice year in %q", number)
	}
	return rest[:idx], year, seq, nil
}
