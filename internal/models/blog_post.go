package models

import "time"

// BlogPost category choices
var BlogCategoryLabels = map[string]string{
	"ai":        "AI",
	"ml":        "Machine Learning",
	"ds":        "Data Science",
	"nlp":       "Natural Language Processing",
	"cv":        "Computer Vision",
	"rl":        "Reinforcement Learning",
	"education": "교육",
	"career":    "경력",
	"project":   "프로젝트",
	"other":     "기타",
}

type BlogPost struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Content     string    `db:"content"`
	Category    string    `db:"category"`
	Date        time.Time `db:"date"`
	ImageURL    *string   `db:"image_url"`
	Link        *string   `db:"link"`
	IsPublished bool      `db:"is_published"`
	IsFeatured  bool      `db:"is_featured"`
	ViewCount   int       `db:"view_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CategoryLabel returns the display label for the post's category
func (p *BlogPost) CategoryLabel() string {
	if label, ok := BlogCategoryLabels[p.Category]; ok {
		return label
	}
	return p.Category
}

// CategoryCount aggregates the number of published posts per category
type CategoryCount struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}
