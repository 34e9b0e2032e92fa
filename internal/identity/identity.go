package identity

// Role says which side of the scheduling relationship a user is on.
type Role int

const (
	RoleNone Role = iota
	RolePatient
	RoleCaregiver
)

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "patient"
	case RoleCaregiver:
		return "caregiver"
	default:
		return "none"
	}
}

// Identity is the logged-in user for a single core call. It is passed
// explicitly into every service method; the zero value means nobody is
// logged in.
type Identity struct {
	Role     Role
	Username string
}

func Patient(username string) Identity {
	return Identity{Role: RolePatient, Username: username}
}

func Caregiver(username string) Identity {
	return Identity{Role: RoleCaregiver, Username: username}
}

func (id Identity) LoggedIn() bool {
	return id.Role != RoleNone
}
