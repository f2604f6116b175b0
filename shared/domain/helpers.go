package domain

import (
	"fmt"
	"time"
)

// CanEdit reports whether u may modify content written by author.
func (u *User) CanEdit(author Author) bool {
	return u.IsAdmin() || u.Id == author.Uid
}

// for debug
func (q *Question) String() string {
	s := fmt.Sprintf("[id:%d, title:%s, author:%s, created:%s, answered:%v, attachments:[", q.Id, q.Title, q.Author.Uid, q.CreatedAt.Format(time.StampMilli), q.IsAnswered)
	for i, atch := range q.Attachments {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%+v", atch)
	}
	return s + "]]"
}
