package ledger

import (
	"fmt"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain"
)

// ParseWindow interpreta from/to en formato YYYY-MM-DD y valida el rango.
func ParseWindow(from, to string) (time.Time, time.Time, error) {
	f, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %q", domain.ErrInvalidInput, from)
	}
	t, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %q", domain.ErrInvalidInput, to)
	}
	if err := ValidateRange(f, t); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return f, t, nil
}

// EndOfDay último instante del día de t; sirve de corte inclusivo para consultas por fecha.
func EndOfDay(t time.Time) time.Time {
	return Day(t).Add(24*time.Hour - time.Nanosecond)
}
