package api

// AnswerRequest is used both to create and to edit an answer.
// On edit, attachments sent alongside replace the existing list.
type AnswerRequest struct {
	Text string `json:"text" validate:"required,notblank,max=20000"`
}
