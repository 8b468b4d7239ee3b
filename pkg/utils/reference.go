package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FormatReference renders a sequence number as PREFIX-000042
func FormatReference(prefix string, n int64, width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

// RandomReference generates a unique reference when no sequence is available
func RandomReference(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.New().String()[:8])
}
