package thought

import "time"

// Summary is the listing view of a record.
type Summary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	IsDraft   bool      `json:"isDraft"`
	UpdatedAt time.Time `json:"updatedAt"`
	Route     string    `json:"route"`
}

// ToSummary builds the listing view. Drafts route to the edit form,
// finalized records to the read view.
func (r *Record) ToSummary() Summary {
	route := ViewRoute(r.ID)
	if r.IsDraft {
		route = FormRoute(r.ID)
	}
	return Summary{
		ID:        r.ID,
		Title:     r.Title(),
		IsDraft:   r.IsDraft,
		UpdatedAt: r.UpdatedAt,
		Route:     route,
	}
}
