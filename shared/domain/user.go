package domain

import "time"

// User is an account known to the external auth service. Role is kept locally
// so administrators can promote or demote users.
type User struct {
	Id          UserId      `json:"uid"`
	Email       Email       `json:"email"`
	DisplayName DisplayName `json:"displayName"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        Role        `json:"role"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// ProfileUpdateData is a user's edit of their own profile. Nil fields are
// left unchanged.
type ProfileUpdateData struct {
	FirstName *string
	LastName  *string
	Email     *Email
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Author is the snapshot of a user embedded in questions and answers.
type Author struct {
	Uid         UserId      `json:"uid"`
	Email       Email       `json:"email"`
	DisplayName DisplayName `json:"displayName"`
	Admin       bool        `json:"-"`
}

func (u *User) AsAuthor() Author {
	name := u.DisplayName
	if name == "" {
		name = AnonymousName
	}
	return Author{Uid: u.Id, Email: u.Email, DisplayName: name, Admin: u.IsAdmin()}
}
