package user

import "github.com/shulehub/shule/core"

// RoleKind is the portal an account belongs to.
type RoleKind int

const (
	RoleKindOther RoleKind = iota
	RoleKindTeacher
	RoleKindStudent
)

func (k RoleKind) String() string {
	switch k {
	case RoleKindTeacher:
		return "teacher"
	case RoleKindStudent:
		return "student"
	default:
		return "other"
	}
}

// ClassifyRoles returns the RoleKind of an account holding roles.
// Teacher membership is checked first, then student; the first match wins.
func ClassifyRoles(roles []string) RoleKind {
	switch {
	case hasRolePrefix(roles, RoleTeacher):
		return RoleKindTeacher
	case hasRolePrefix(roles, RoleStudent):
		return RoleKindStudent
	default:
		return RoleKindOther
	}
}

// Capability is a named permission checked before an operation touches storage.
type Capability string

const (
	CapViewStudent      Capability = "view_student"
	CapAddStudent       Capability = "add_student"
	CapChangeStudent    Capability = "change_student"
	CapDeleteStudent    Capability = "delete_student"
	CapManageCatalogue  Capability = "manage_catalogue"
	CapRecordAttendance Capability = "record_attendance"
	CapRecordGrade      Capability = "record_grade"
)

var capabilityGrants = []struct {
	rolePrefix string
	caps       []Capability
}{
	{
		rolePrefix: RoleAdmin,
		caps: []Capability{
			CapViewStudent, CapAddStudent, CapChangeStudent, CapDeleteStudent,
			CapManageCatalogue, CapRecordAttendance, CapRecordGrade,
		},
	},
	{
		rolePrefix: RoleTeacher,
		caps:       []Capability{CapViewStudent, CapRecordAttendance, CapRecordGrade},
	},
}

// Actor is the authenticated account performing a request.
type Actor struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
	Kind     RoleKind
}

func NewActor(userID, username, email string, roles []string) *Actor {
	return &Actor{
		UserID:   userID,
		Username: username,
		Email:    email,
		Roles:    roles,
		Kind:     ClassifyRoles(roles),
	}
}

func ActorFromUser(usr User) *Actor {
	return NewActor(usr.ID, usr.Username, usr.Email, usr.Roles)
}

func (a *Actor) IsAdmin() bool {
	return a != nil && hasRolePrefix(a.Roles, RoleAdmin)
}

// Can reports whether the actor holds the capability. Unknown capabilities and nil actors are denied.
func (a *Actor) Can(c Capability) bool {
	if a == nil {
		return false
	}
	for _, grant := range capabilityGrants {
		if !hasRolePrefix(a.Roles, grant.rolePrefix) {
			continue
		}
		for _, gc := range grant.caps {
			if gc == c {
				return true
			}
		}
	}
	return false
}

// Require returns core.ErrForbidden unless the actor holds the capability.
func (a *Actor) Require(c Capability) error {
	if !a.Can(c) {
		return core.ErrForbidden
	}
	return nil
}

// Landing is where an account is sent after login or signup.
type Landing struct {
	Name string `json:"landing"`
	Path string `json:"path"`
}

var (
	LandingLogin   = Landing{Name: "login", Path: "/v1/users/login"}
	LandingTeacher = Landing{Name: "teacher-dashboard", Path: "/v1/dashboard/teacher"}
	LandingStudent = Landing{Name: "student-dashboard", Path: "/v1/dashboard/student"}
	LandingAdmin   = Landing{Name: "admin-landing", Path: "/v1/users"}
)

// LandingFor decides the landing of an actor; a nil actor is unauthenticated.
func LandingFor(a *Actor) Landing {
	if a == nil {
		return LandingLogin
	}
	switch a.Kind {
	case RoleKindTeacher:
		return LandingTeacher
	case RoleKindStudent:
		return LandingStudent
	default:
		return LandingAdmin
	}
}
