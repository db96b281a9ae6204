package dto

type CreateLogRequest struct {
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	ImageURL *string  `json:"image_url"`
}
