package database

import (
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Record values come back loosely typed from the driver. These helpers read
// them without panicking on missing or unexpected properties.

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case neo4j.LocalDateTime:
		return t.Time(), true
	case neo4j.Date:
		return t.Time(), true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		return parsed, err == nil
	default:
		return time.Time{}, false
	}
}

func optionalFloat(v interface{}) *float64 {
	if f, ok := asFloat(v); ok {
		return &f
	}
	return nil
}

func optionalTime(v interface{}) *time.Time {
	if t, ok := asTime(v); ok {
		return &t
	}
	return nil
}
