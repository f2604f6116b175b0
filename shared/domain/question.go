package domain

import "time"

// to iterate thru layers: handler -> service -> storage
type QuestionCreationData struct {
	Title        QuestionTitle
	Text         Text
	Categories   CategoryIds
	Author       User
	PendingFiles []*PendingFile
}

type QuestionUpdateData struct {
	Id         QuestionId
	Title      *QuestionTitle
	Text       *Text
	Categories *CategoryIds
	Editor     User
}

type QuestionMetadata struct {
	Id         QuestionId    `json:"id"`
	Title      QuestionTitle `json:"title"`
	Categories CategoryIds   `json:"category"`
	Author     Author        `json:"user"`
	CreatedAt  time.Time     `json:"createdAt"`
	IsAnswered bool          `json:"isAnswered"`
}

type Question struct {
	QuestionMetadata
	Text        Text        `json:"questionText"`
	TextHTML    string      `json:"questionTextHtml"`
	Attachments Attachments `json:"files"`
	Answers     []Answer    `json:"answers,omitempty"`
}

type ArchiveFilter struct {
	Category *CategoryId
	Query    string
	Page     int
}

type ArchivePage struct {
	Questions []Question `json:"questions"`
	Page      int        `json:"page"`
	Total     int        `json:"total"`
}
