package model

// Actor is the identity performing an operation. The zero value is the
// anonymous actor.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) Anonymous() bool {
	return a.ID == ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
