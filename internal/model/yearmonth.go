package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidYearMonth = errors.New("invalid year-month")

// YearMonth is the entry date granularity used by the backend ("YYYY-MM").
type YearMonth struct {
	Year  int
	Month time.Month
}

func CurrentYearMonth(now time.Time) YearMonth {
	return YearMonth{Year: now.Year(), Month: now.Month()}
}

func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	y, m, ok := strings.Cut(s, "-")
	if !ok || len(y) != 4 || len(m) != 2 || !allDigits(y) || !allDigits(m) {
		return YearMonth{}, fmt.Errorf("%w: %q (want YYYY-MM)", ErrInvalidYearMonth, s)
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return YearMonth{}, fmt.Errorf("%w: %q (bad year)", ErrInvalidYearMonth, s)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q (bad month)", ErrInvalidYearMonth, s)
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (ym YearMonth) IsZero() bool { return ym.Year == 0 && ym.Month == 0 }

func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalText() ([]byte, error) { return []byte(ym.String()), nil }

func (ym *YearMonth) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*ym = YearMonth{}
		return nil
	}
	v, err := ParseYearMonth(string(b))
	if err != nil {
		return err
	}
	*ym = v
	return nil
}
