// pkg/core/category.go
package core

import (
	"errors"
	"strings"
)

// Category groups route points that are collected and announced together.
type Category int

const (
	Targets Category = iota
	Waypoints
	POI
	Favorites
	Alarms
)

// CategoryCount is the number of categories.
const CategoryCount = 5

// ErrUnknownCategory is returned when a category name cannot be parsed.
var ErrUnknownCategory = errors.New("unknown category")

var categoryNames = [CategoryCount]string{"targets", "waypoints", "poi", "favorites", "alarms"}

// Categories lists every category in index order.
func Categories() []Category {
	return []Category{Targets, Waypoints, POI, Favorites, Alarms}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c >= 0 && c < CategoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return categoryNames[c]
}

// ParseCategory accepts a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, ErrUnknownCategory
}
