package models

import "encoding/json"

// Member is a group member as listed by the backend.
type Member struct {
	Username string `json:"username"`
}

// Group is a set of users sharing expenses.
type Group struct {
	// ID is serialized as "group_id" by the backend; "id" is accepted too.
	ID int64

	// Name is the display name of the group (e.g., "Trip to Banff").
	Name string

	// CreatedBy is the creator's username (or numeric user id, as a string).
	// Only the creator may add members.
	CreatedBy UserRef

	Members []Member
}

type groupJSON struct {
	GroupID   int64    `json:"group_id,omitempty"`
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	CreatedBy UserRef  `json:"created_by"`
	Members   []Member `json:"members"`
}

// UnmarshalJSON accepts both "group_id" and "id" for the identifier.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw groupJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.ID = raw.GroupID
	if g.ID == 0 {
		g.ID = raw.ID
	}
	g.Name = raw.Name
	g.CreatedBy = raw.CreatedBy
	g.Members = raw.Members
	return nil
}

// MarshalJSON writes the backend's shape ("group_id").
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupJSON{
		GroupID:   g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		Members:   g.Members,
	})
}

// IsCreator reports whether username created the group.
func (g *Group) IsCreator(username string) bool {
	return username != "" && string(g.CreatedBy) == username
}

// HasMember reports whether username is listed as a member.
func (g *Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m.Username == username {
			return true
		}
	}
	return false
}
