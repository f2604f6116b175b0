package domain

type Category struct {
	Id   CategoryId   `json:"id"`
	Name CategoryName `json:"name"`
}
