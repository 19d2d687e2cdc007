package models

import (
	"encoding/json"
	"strings"
	"time"
)

// FlexibleDate accepts both RFC3339 timestamps and "YYYY-MM-DD" dates when
// decoding trade and payment dates.
type FlexibleDate struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface. An empty string or
// null leaves the zero time, which callers replace with today.
func (f *FlexibleDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		f.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		f.Time = t
		return nil
	}

	t, err = time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexibleDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Time)
}

// OrToday returns the date truncated to the day, or today in UTC when unset.
func (f FlexibleDate) OrToday() time.Time {
	if f.IsZero() {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return f.Time.UTC().Truncate(24 * time.Hour)
}
