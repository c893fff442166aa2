package shared

import (
	"fmt"
	"time"
)

// FormatDocumentNumber renders PREFIX-YYYYMMDD-NNNN.
func FormatDocumentNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}
