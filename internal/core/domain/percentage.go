package domain

import (
	"errors"
	"slices"
)

var (
	ErrEmptyOrderedList = errors.New("the ordered list is empty")
	ErrItemNotInList    = errors.New("item is not in the ordered list")
)

// OrderedListItemToPercentage maps the k-th item (1 based) of a list of n
// items to k*100/n. Every item owns the band ((k-1)*100/n, k*100/n].
func OrderedListItemToPercentage[T comparable](orderedList []T, item T) (int, error) {
	if len(orderedList) == 0 {
		return 0, ErrEmptyOrderedList
	}
	idx := slices.Index(orderedList, item)
	if idx < 0 {
		return 0, ErrItemNotInList
	}
	return ((idx + 1) * 100) / len(orderedList), nil
}

// PercentageToOrderedListItem returns the first item whose band upper bound
// is >= percentage. Values above 100 map to the last item.
func PercentageToOrderedListItem[T any](orderedList []T, percentage int) (T, error) {
	var zero T
	if len(orderedList) == 0 {
		return zero, ErrEmptyOrderedList
	}
	for offset, item := range orderedList {
		upperBound := ((offset + 1) * 100) / len(orderedList)
		if percentage <= upperBound {
			return item, nil
		}
	}
	return orderedList[len(orderedList)-1], nil
}
