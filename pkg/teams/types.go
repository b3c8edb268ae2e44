// Package teams manages the teams of a tenant and which staff belong to them.
package teams

// Team groups staff within one tenant
type Team struct {
	ID           int64  `json:"ID"`
	Nom          string `json:"nom"`
	EntrepriseID int64  `json:"entreprise_id"`
}

// Member is a tenant staff row as shown when composing teams
type Member struct {
	ID           int64   `json:"ID"`
	Nom          string  `json:"nom"`
	Prenom       *string `json:"prenom"`
	NumTel       *string `json:"num_tel"`
	Email        *string `json:"email"`
	Departement  *string `json:"departement"`
	Role         string  `json:"role"`
	TeamID       *int64  `json:"team_id"`
	EntrepriseID int64   `json:"entreprise_id"`
	AgenceID     *int64  `json:"agence_id"`
	Available    bool    `json:"available"`
}

// AddRequest is the body of POST /api/addTeam
type AddRequest struct {
	Nom string `json:"nom" validate:"notblank"`
}

// UpdateRequest is the body of PUT /api/updateTeam
type UpdateRequest struct {
	ID  int64   `json:"ID" validate:"gt=0"`
	Nom *string `json:"nom"`
}

// DeleteRequest is the body of DELETE /api/deleteTeam
type DeleteRequest struct {
	IDs []int64 `json:"IDs" validate:"min=1,dive,gt=0"`
}

// MembershipRequest is the body of PUT /api/addStaffToTeam. A zero TeamID
// removes the staff from their team.
type MembershipRequest struct {
	StaffIDs []int64 `json:"staffIds" validate:"min=1,dive,gt=0"`
	TeamID   int64   `json:"teamId" validate:"gte=0"`
}
