package posts

import "time"

const Collection = "posts"

type Category string

const (
	CategoryNews   Category = "notícia"
	CategoryResult Category = "resultado"
	CategoryEvent  Category = "evento"
	CategoryStory  Category = "história"
)

// Autor y largo del resumen de las historias generadas automáticamente.
const (
	SystemAuthor  = "Sistema APA"
	ExcerptLength = 100
)

type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Image         string    `json:"image"`
	Category      Category  `json:"category"`
	Author        string    `json:"author"`
	PublishDate   time.Time `json:"publishDate"`
	IsActive      bool      `json:"isActive"`
	IsHighlighted bool      `json:"isHighlighted"`

	// SourceID enlaza una historia de éxito con el anuncio de mascota perdida.
	SourceID string `json:"sourceId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
