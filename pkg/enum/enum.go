package enum

import (
	"fmt"
	"reflect"
)

var registry = map[reflect.Type]map[string]any{}

// New registers a value as a member of its enum type and returns it. Enum
// types must have a string underlying type.
func New[T comparable](value T) T {
	t := reflect.TypeOf(value)
	if _, ok := registry[t]; !ok {
		registry[t] = map[string]any{}
	}

	registry[t][reflect.ValueOf(value).String()] = value
	return value
}

// ToEnum converts a string to a registered enum value of type T.
func ToEnum[T comparable](s string) (T, error) {
	var zero T
	members, ok := registry[reflect.TypeOf(zero)]
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	value, ok := members[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return value.(T), nil
}

// ToList returns every registered member of enum type T.
func ToList[T comparable]() []T {
	var zero T
	members := registry[reflect.TypeOf(zero)]

	result := make([]T, 0, len(members))
	for _, v := range members {
		result = append(result, v.(T))
	}

	return result
}
