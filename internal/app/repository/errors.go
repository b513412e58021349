package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned by every repository, whatever the backend, when
// the requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// MissingOrdersError lists order ids a batch referenced that do not exist.
type MissingOrdersError struct {
	IDs []uint
}

func (e *MissingOrdersError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return "orders not found: " + strings.Join(ids, ", ")
}

func (e *MissingOrdersError) Is(target error) bool {
	return target == ErrNotFound
}

func newMissingOrdersError(ids []uint) *MissingOrdersError {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &MissingOrdersError{IDs: sorted}
}

// AsMissingOrders extracts a MissingOrdersError from err.
func AsMissingOrders(err error) (*MissingOrdersError, bool) {
	var missing *MissingOrdersError
	if errors.As(err, &missing) {
		return missing, true
	}
	return nil, false
}
