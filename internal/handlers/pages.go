package handlers

import (
	"log/slog"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
)

type landingPageData struct {
	Title    string
	Features []models.Feature
	Email    string
	Error    string
}

type dashboardPageData struct {
	Title string
	Tools []models.Tool
}

type newsPageData struct {
	Title    string
	Source   string
	Sources  []string
	Articles []models.Article
	Error    string
}

type cofounderPageData struct {
	Title    string
	Query    string
	Skills   []skillFilter
	Founders []models.Founder
}

type skillFilter struct {
	Name     string
	Selected bool
}

const (
	invalidEmailMessage = "Please enter a valid email id"
	newsErrorMessage    = "Failed to fetch news. Please try again later."
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@(gmail\.com|outlook\.com)$`)

// HandleLanding serves the landing page and its sign-up form. Every path without a route of its own
// lands here and is redirected to the root.
func (m Main) HandleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := landingPageData{
		Title:    "Founder's Assistant",
		Features: models.LandingFeatures,
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		m.render(w, http.StatusOK, "landing.html", data)
	case http.MethodPost:
		email := strings.TrimSpace(r.FormValue("email"))
		if !emailRe.MatchString(email) {
			data.Email = email
			data.Error = invalidEmailMessage
			m.render(w, http.StatusBadRequest, "landing.html", data)
			return
		}
		m.logger.Info("User signed up", slog.String("email", email))
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	default:
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDashboard lists the tools of the application.
func (m Main) HandleDashboard(w http.ResponseWriter, _ *http.Request) {
	m.render(w, http.StatusOK, "dashboard.html", dashboardPageData{
		Title: "Dashboard",
		Tools: models.DashboardTools,
	})
}

// HandleNews renders the news list fetched from the news collaborator. The optional "source" query
// parameter overrides the configured feed. A failing collaborator renders an empty list with an error
// notice instead of failing the page.
func (m Main) HandleNews(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	data := newsPageData{
		Title:   "Startup News",
		Source:  source,
		Sources: models.NewsSources,
	}

	articles, err := m.news.Articles(r.Context(), source)
	if err != nil {
		m.logger.Error("Failed to fetch news",
			slog.String("source", source),
			slog.String(errLoggerKey, err.Error()))
		data.Error = newsErrorMessage
	}
	data.Articles = articles

	m.render(w, http.StatusOK, "news.html", data)
}

// HandleFindCofounder renders the co-founder gallery filtered by the "q" search term and the repeated
// "skill" parameters.
func (m Main) HandleFindCofounder(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	selected := r.URL.Query()["skill"]

	skills := make([]skillFilter, len(models.FounderSkills))
	for i, s := range models.FounderSkills {
		skills[i] = skillFilter{
			Name:     s,
			Selected: slices.Contains(selected, s),
		}
	}

	m.render(w, http.StatusOK, "cofounder.html", cofounderPageData{
		Title:    "Find Your Co-Founder",
		Query:    query,
		Skills:   skills,
		Founders: models.FilterFounders(models.Founders, query, selected),
	})
}
