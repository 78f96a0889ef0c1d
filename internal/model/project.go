package model

// CanonicalLanguage is the title language used as the deal business key.
const CanonicalLanguage = "cs"

// Project is a fundraising campaign on the donation platform.
type Project struct {
	Title     map[string]string `json:"title"`
	ProjectID FlexibleID        `json:"projectId"`
}

// CanonicalTitle returns the Czech title, or "" when there is none.
func (p Project) CanonicalTitle() string {
	return p.Title[CanonicalLanguage]
}
