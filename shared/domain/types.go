package domain

type (
	UserId      = string
	Email       = string
	DisplayName = string
	Role        = string

	QuestionId    = int64
	QuestionTitle = string
	AnswerId      = int64
	CategoryId    = int64
	CategoryName  = string
	CategoryIds   = []CategoryId
	Text          = string
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Shown in place of an empty display name.
const AnonymousName DisplayName = "Anonym"
