package quote

import (
	"strings"
	"time"

	"carrental/internal/domain/shared/daterange"
)

func optionalDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDate(raw)
}
