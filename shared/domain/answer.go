package domain

import "time"

type AnswerCreationData struct {
	QuestionId   QuestionId
	Text         Text
	Author       User
	PendingFiles []*PendingFile
}

// AnswerUpdateData replaces the text and, when PendingFiles is non-empty,
// the whole attachment list.
type AnswerUpdateData struct {
	QuestionId   QuestionId
	Id           AnswerId
	Text         Text
	Editor       User
	PendingFiles []*PendingFile
}

type Answer struct {
	Id          AnswerId    `json:"id"`
	QuestionId  QuestionId  `json:"questionId"`
	Text        Text        `json:"text"`
	TextHTML    string      `json:"textHtml"`
	Author      Author      `json:"author"`
	CreatedAt   time.Time   `json:"createdAt"`
	ModifiedAt  time.Time   `json:"modifiedAt"`
	Attachments Attachments `json:"attachments"`
}
