package models

// Member is one entry in a group's roster. Identity is the display name.
type Member struct {
	DisplayName string `json:"display_name"`
}

// Group is a meal-planning group and its roster.
type Group struct {
	ID      string   `json:"id"`
	Members []Member `json:"members"`
}
