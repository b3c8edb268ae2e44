package staff

import (
	"time"
)

// Staff is a staff row as returned by inserts and updates
type Staff struct {
	ID          int64   `json:"ID"`
	Nom         string  `json:"nom"`
	Prenom      *string `json:"prenom"`
	Role        string  `json:"role"`
	Departement *string `json:"departement"`
	NumTel      *string `json:"num_tel"`
	Email       *string `json:"email"`
	TeamID      *int64  `json:"team_id"`
	AgenceID    *int64  `json:"agence_id"`
	Available   bool    `json:"available"`
}

// Listing is a staff row joined with its team and agency names
type Listing struct {
	ID           int64   `json:"ID"`
	Nom          string  `json:"nom"`
	Prenom       *string `json:"prenom"`
	Email        *string `json:"email"`
	Departement  *string `json:"departement"`
	NumTel       *string `json:"num_tel"`
	Role         string  `json:"role"`
	Available    bool    `json:"available"`
	AgenceID     *int64  `json:"agence_id"`
	TeamNom      *string `json:"team_nom"`
	AgenceNom    *string `json:"agence_nom"`
	AssignmentID *int64  `json:"assignment_id,omitempty"`
}

// Assignment is a "Liste_staff" row linking a staff member to an event
type Assignment struct {
	ID          int64      `json:"ID"`
	StaffID     int64      `json:"staff_id"`
	EvenementID int64      `json:"evenement_id"`
	DateDebut   *time.Time `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin"`
	HasAgency   bool       `json:"has_agency"`
}

// Availability is the short staff view returned by the availability toggle
type Availability struct {
	ID        int64  `json:"ID"`
	Nom       string `json:"nom"`
	Available bool   `json:"available"`
}

// Participation is one (staff, event) pair of a recent tenant event. StaffID
// is nil for events nobody was assigned to.
type Participation struct {
	StaffID   *int64     `json:"staff_id"`
	DateDebut *time.Time `json:"date_debut"`
	Nom       string     `json:"nom"`
}

// StaffEvent is an event a staff member is assigned to
type StaffEvent struct {
	EventID     int64      `json:"event_id"`
	EventName   string     `json:"event_name"`
	DateDebut   *time.Time `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin"`
	Type        *string    `json:"type"`
	Edition     *string    `json:"edition"`
	NbrInvite   *int64     `json:"nbr_invite"`
	Description *string    `json:"description"`
	Address     *string    `json:"address"`
	ClientID    *int64     `json:"client_id"`
	ClientName  *string    `json:"client_name"`
}

// EventStaff is a staff member of one event
type EventStaff struct {
	StaffName     string  `json:"staff_name"`
	StaffLastname *string `json:"staff_lastname"`
	NumTel        *string `json:"num_tel"`
	Email         *string `json:"email"`
	Departement   *string `json:"departement"`
	Role          string  `json:"role"`
	Available     bool    `json:"available"`
	TeamNom       *string `json:"team_nom"`
}

// AgencyStaff is an agency-provided staff member of one event
type AgencyStaff struct {
	ID          int64      `json:"ID"`
	Nom         string     `json:"nom"`
	Prenom      *string    `json:"prenom"`
	Email       *string    `json:"email"`
	Departement *string    `json:"departement"`
	NumTel      *string    `json:"num_tel"`
	Role        string     `json:"role"`
	Available   bool       `json:"available"`
	AgenceID    int64      `json:"agence_id"`
	AgenceNom   string     `json:"agence_nom"`
	DateDebut   *time.Time `json:"date_debut"`
	DateFin     *time.Time `json:"date_fin"`
	HasAgency   bool       `json:"has_agency"`
}

// Agency is a staffing agency
type Agency struct {
	ID  int64  `json:"ID"`
	Nom string `json:"nom"`
}

// Column describes one column of the agence table
type Column struct {
	ColumnName             string  `json:"column_name"`
	DataType               string  `json:"data_type"`
	CharacterMaximumLength *int64  `json:"character_maximum_length"`
	IsNullable             string  `json:"is_nullable"`
	ColumnDefault          *string `json:"column_default"`
}

// NewStaff is a validated staff member ready to insert
type NewStaff struct {
	Nom         string
	Prenom      *string
	Role        string
	Departement *string
	NumTel      *string
	Email       *string
	TeamID      *int64
	AgenceID    int64
	Available   bool
}

// NewAssignment is the optional event link created with a staff member
type NewAssignment struct {
	EvenementID int64
	DateDebut   *time.Time
	DateFin     *time.Time
}

// Created is the result of a joint staff and assignment creation
type Created struct {
	Staff      *Staff      `json:"staff"`
	Assignment *Assignment `json:"event_assignment,omitempty"`
}

// Assigned is the result of assigning a staff member to an event
type Assigned struct {
	Assignment *Assignment   `json:"assignment"`
	Staff      *Availability `json:"staff"`
}

// Unassigned is the result of releasing a staff member from an event
type Unassigned struct {
	Assignment *Assignment   `json:"removed_assignment"`
	Staff      *Availability `json:"staff"`
}

// Deleted is the result of deleting a staff member with its assignments
type Deleted struct {
	Staff       *Staff        `json:"deleted_staff"`
	Assignments []*Assignment `json:"deleted_assignments"`
}

// AddStaffRequest is the body of POST /api/addStaff
type AddStaffRequest struct {
	Nom         string `json:"nom" validate:"notblank"`
	Prenom      string `json:"prenom"`
	Role        string `json:"role" validate:"notblank"`
	Departement string `json:"departement"`
	NumTel      string `json:"num_tel"`
	Email       string `json:"email" validate:"omitempty,email"`
	TeamID      *int64 `json:"team_id" validate:"omitnil,gte=0"`
	AgenceID    int64  `json:"agence_id" validate:"gt=0"`
	Available   *bool  `json:"available"`
}

// AddStaffWithAgenceRequest is the body of POST /api/addStaffWithAgence
type AddStaffWithAgenceRequest struct {
	AddStaffRequest
	EvenementID *int64 `json:"evenement_id" validate:"omitnil,gt=0"`
	StartDate   string `json:"start_date" validate:"omitempty,date"`
	EndDate     string `json:"end_date" validate:"omitempty,date"`
}

// UpdateRequest is the body of PUT /api/updateStaff. Absent and empty
// fields leave the column unchanged.
type UpdateRequest struct {
	ID          int64   `json:"ID" validate:"gt=0"`
	Nom         *string `json:"nom"`
	Prenom      *string `json:"prenom"`
	Role        *string `json:"role"`
	Departement *string `json:"departement"`
	NumTel      *string `json:"num_tel"`
	Email       *string `json:"email"`
	TeamID      *int64  `json:"team_id"`
	AgenceID    *int64  `json:"agence_id"`
	Available   *bool   `json:"available"`
}

// IDRequest is the body of DELETE /api/deleteStaff
type IDRequest struct {
	ID int64 `json:"ID"`
}

// AssignmentRequest names a (staff, event) pair
type AssignmentRequest struct {
	StaffID     int64 `json:"staff_id" validate:"gt=0"`
	EvenementID int64 `json:"evenement_id" validate:"gt=0"`
}

// StaffIDRequest is the body of DELETE /api/staff/deleteStaffAndAssignments
type StaffIDRequest struct {
	StaffID int64 `json:"staff_id"`
}

// EventRequest is the body of POST /api/getStaffWithAgencyByEvent
type EventRequest struct {
	EvenementID int64 `json:"evenement_id"`
}
