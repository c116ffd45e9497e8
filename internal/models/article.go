package models

// Article is one news item served by the news collaborator.
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Image     string `json:"image"`
}

// NewsSources are the feed names the news collaborator accepts in its source parameter.
var NewsSources = []string{"Inc42", "The Economic Times Startups"}
