package domain

import (
	"fmt"
	"slices"
	"strings"
)

// MaxActiveCategories bounds the category multi-select.
const MaxActiveCategories = 3

// CategoryFilter is the set of active category filters, in activation order.
type CategoryFilter struct {
	active []string
}

// Toggle activates or deactivates a category. Activating a fourth category
// fails with ErrCategoryLimit and leaves the set unchanged. It reports
// whether the category is active afterwards.
func (f *CategoryFilter) Toggle(category string) (bool, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return false, fmt.Errorf("%w: empty category", ErrInvalidCategory)
	}

	if i := slices.Index(f.active, category); i >= 0 {
		f.active = slices.Delete(f.active, i, i+1)
		return false, nil
	}

	if len(f.active) >= MaxActiveCategories {
		return false, fmt.Errorf("%w: at most %d categories", ErrCategoryLimit, MaxActiveCategories)
	}
	f.active = append(f.active, category)
	return true, nil
}

// Clear deactivates every category.
func (f *CategoryFilter) Clear() {
	f.active = nil
}

// Active returns a copy of the active categories.
func (f *CategoryFilter) Active() []string {
	return append([]string{}, f.active...)
}
