package domain

import (
	"encoding/json/v2"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date as the library service sends it. It decodes from
// null, "2006-01-02", an RFC3339 timestamp, or epoch milliseconds, and always
// encodes as "2006-01-02" (or null when zero).
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON handles flexible date parsing.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			d.Time = time.Time{}
			return nil
		}
		for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				d.Time = t
				return nil
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			d.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		return fmt.Errorf("cannot parse date string: %s", s)
	}

	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		d.Time = time.UnixMilli(ms).UTC()
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into Date", string(data))
}

// MarshalJSON outputs the date as "2006-01-02", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// String renders the date for pages, "-" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("2 Jan 2006")
}
