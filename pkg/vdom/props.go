package vdom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Props holds attributes and event listeners. Keys beginning with "on"
// ("onPress", "onchange") register listeners for the lowercased event name
// after the prefix; all other keys are plain attributes.
type Props map[string]any

// EventKey reports whether key names an event listener and returns the
// event type it listens for ("onClick" -> "click").
func EventKey(key string) (event string, ok bool) {
	if len(key) > 2 && strings.EqualFold(key[:2], "on") {
		return strings.ToLower(key[2:]), true
	}
	return "", false
}

// PropsEqual compares two prop values. Functions never compare equal unless
// both are nil: a re-rendered closure may capture different state, so
// listeners are always re-registered rather than risk keeping a stale one.
func PropsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case int64:
		if bv, ok := b.(int64); ok {
			return av == bv
		}
		return false
	case float64:
		if bv, ok := b.(float64); ok {
			return av == bv
		}
		return false
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	if reflect.TypeOf(a).Kind() == reflect.Func {
		return false
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}

// PropString converts a prop value to its attribute string form.
func PropString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
