package domain

import "strconv"

// User is the authenticated identity behind a request or a stream.
type User struct {
	ID       int
	Email    string
	Name     string
	Hostel   string
	IsStaff  bool
	APIToken string
}

// Actor is the value recorded in the status log.
func (u *User) Actor() string {
	if u == nil {
		return "system"
	}
	if u.Email != "" {
		return u.Email
	}
	return "user-" + strconv.Itoa(u.ID)
}
