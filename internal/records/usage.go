package records

import (
	"context"
	"log/slog"
	"math"
	"strconv"
)

// UsageReport describes how much the durable store holds.
type UsageReport struct {
	TotalBytes int64  `json:"total_bytes"`
	Keys       int    `json:"keys"`
	Formatted  string `json:"formatted"`
}

// Usage reports the stored bytes and key count. A failed query reports zero.
func (s *Store) Usage(ctx context.Context) UsageReport {
	u, err := s.storage.Usage(ctx)
	if err != nil {
		slog.Warn("storage usage failed", "error", err)
		return UsageReport{Formatted: FormatBytes(0)}
	}
	return UsageReport{
		TotalBytes: u.Bytes,
		Keys:       u.Keys,
		Formatted:  FormatBytes(u.Bytes),
	}
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with a binary unit and at most two decimals,
// e.g. 1536 -> "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
