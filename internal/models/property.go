package models

import (
	"encoding/json"
	"time"
)

type PropertyKind int

const (
	PropertyString PropertyKind = iota
	PropertyNumber
	PropertyTime
)

// PropertyValue is one scalar in an action's property bag. Upstream records
// carry heterogeneous values; a closed variant keeps the filter's null checks
// type-aware instead of punting to interface{}.
type PropertyValue struct {
	Kind PropertyKind
	Str  string
	Num  float64
	Time time.Time
}

func StringProperty(s string) PropertyValue {
	return PropertyValue{Kind: PropertyString, Str: s}
}

func NumberProperty(n float64) PropertyValue {
	return PropertyValue{Kind: PropertyNumber, Num: n}
}

func TimeProperty(t time.Time) PropertyValue {
	return PropertyValue{Kind: PropertyTime, Time: t}
}

// IsEmpty reports whether the value is the type's null equivalent: an empty
// string or a zero timestamp. Numbers are never empty; an explicit zero score
// is still a score.
func (v PropertyValue) IsEmpty() bool {
	switch v.Kind {
	case PropertyString:
		return v.Str == ""
	case PropertyTime:
		return v.Time.IsZero()
	default:
		return false
	}
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case PropertyNumber:
		return json.Marshal(v.Num)
	case PropertyTime:
		return json.Marshal(v.Time)
	default:
		return json.Marshal(v.Str)
	}
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = NumberProperty(num)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	// Timestamps round-trip as RFC3339 strings.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*v = TimeProperty(t)
		return nil
	}
	*v = StringProperty(s)
	return nil
}
