// Package priority lets operators override the tasks manager's default
// priority-weight formula (maxPriority - priority) with an expr-lang
// expression evaluated over priority, maxPriority, and arrivalIndex.
// When unset, the tasks manager falls back to DefaultWeight.
package priority
