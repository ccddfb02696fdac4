package models

// Industry is one entry of the two-level business category tree used for
// targeting and for the composer's composite prompt.
type Industry struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ParentCode string `json:"parent_code,omitempty"`
	SortOrder  int    `json:"sort_order"`
}
