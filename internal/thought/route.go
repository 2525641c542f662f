package thought

import (
	"strconv"
	"strings"

	"github.com/hpungsan/thoughts/internal/errors"
)

// NewRef is the navigation reference for an entry that has no id yet.
const NewRef = "new"

// FormRoute is the "continue editing" address for a record.
// An id of 0 addresses a new, unsaved entry.
func FormRoute(id int64) string {
	if id == 0 {
		return "/form/" + NewRef
	}
	return "/form/" + strconv.FormatInt(id, 10)
}

// ViewRoute is the read-only address for a record.
func ViewRoute(id int64) string {
	return "/view/" + strconv.FormatInt(id, 10)
}

// ParseRef parses a navigation reference. "" and "new" return 0.
func ParseRef(ref string) (int64, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == NewRef {
		return 0, nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("record reference must be \"new\" or a positive integer id")
	}
	return id, nil
}
