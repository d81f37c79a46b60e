package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when a timestamp arrives as text.
// SQLite's CURRENT_TIMESTAMP produces the second layout.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// toString aligns any scalar to text. ok is false for nil.
func toString(v interface{}) (s string, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return val, true, nil
	case []byte:
		return string(val), true, nil
	case int64:
		return strconv.FormatInt(val, 10), true, nil
	case int:
		return strconv.Itoa(val), true, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true, nil
	case bool:
		return strconv.FormatBool(val), true, nil
	case time.Time:
		return val.Format(time.RFC3339Nano), true, nil
	default:
		return "", false, fmt.Errorf("cannot convert %T to text", v)
	}
}

func toInt64(v interface{}) (n int64, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return val, true, nil
	case int:
		return int64(val), true, nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) || math.IsNaN(val) {
			return 0, false, fmt.Errorf("%v is not a whole number", val)
		}
		return int64(val), true, nil
	case string, []byte:
		s, _, _ := toString(val)
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", s)
		}
		return toInt64(f)
	default:
		return 0, false, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func toFloat64(v interface{}) (f float64, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return val, true, nil
	case int64:
		return float64(val), true, nil
	case int:
		return float64(val), true, nil
	case string, []byte:
		s, _, _ := toString(val)
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", s)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("cannot convert %T to number", v)
	}
}

// toBool accepts native booleans and SQLite's 0/1 integer encoding
func toBool(v interface{}) (b bool, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return false, false, nil
	case bool:
		return val, true, nil
	case int64:
		return val != 0, true, nil
	case int:
		return val != 0, true, nil
	case float64:
		return val != 0, true, nil
	case string, []byte:
		s, _, _ := toString(val)
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "":
			return false, false, nil
		case "1", "t", "true", "yes", "y":
			return true, true, nil
		case "0", "f", "false", "no", "n":
			return false, true, nil
		}
		return false, false, fmt.Errorf("%q is not a boolean", s)
	default:
		return false, false, fmt.Errorf("cannot convert %T to boolean", v)
	}
}

// toTime accepts time values, text timestamps and unix seconds
func toTime(v interface{}) (t time.Time, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return val, true, nil
	case int64:
		return time.Unix(val, 0).UTC(), true, nil
	case int:
		return time.Unix(int64(val), 0).UTC(), true, nil
	case float64:
		sec, frac := math.Modf(val)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true, nil
	case string, []byte:
		s, _, _ := toString(val)
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("%q is not a recognised timestamp", s)
	default:
		return time.Time{}, false, fmt.Errorf("cannot convert %T to timestamp", v)
	}
}
