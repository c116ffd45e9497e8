package models

import (
	"fmt"
	"slices"
	"strings"
)

// ExampleCard is a static example offered under a topic whose log holds only the greeting. Picking a
// card submits Prompt() exactly as if the user had typed it.
type ExampleCard struct {
	Topic       Topic
	Title       string
	Description string
	Metrics     []string
}

// Prompt derives the submitted text from the card.
func (c ExampleCard) Prompt() string {
	switch c.Topic {
	case TopicStrategy:
		return fmt.Sprintf("Build a go-to-market strategy for %s: %s", c.Title, c.Description)
	default:
		return fmt.Sprintf("Analyze the %s market: %s", c.Title, c.Description)
	}
}

var exampleCards = []ExampleCard{
	{
		Topic: TopicMarket,
		Title: "Personalized Health Coaching Market",
		Description: "AI-driven health coaching platforms that use genetic data, lifestyle habits, and wearable " +
			"integration for highly personalized fitness and nutrition plans.",
		Metrics: []string{
			"CAGR 20.1%",
			"2025 Market: $10B",
			"Key Players: 23andMe + Lark Health, Thrive AI Health, Suggestic",
			"Focus on specific niches (athletes, post-surgery recovery, genetic predispositions)",
			"Integration with wearables for real-time adjustments",
		},
	},
	{
		Topic: TopicMarket,
		Title: "Genetic Data Integration in Wellness",
		Description: "AI platforms that integrate genetic analysis to predict diet and exercise responses, " +
			"offering users tailored health recommendations.",
		Metrics: []string{
			"CAGR 15.8%",
			"2025 Market: $3.5B",
			"Key Players: DNAfit, Nutrigenomix, DNA Health",
			"Advanced genomic analysis to predict diet/exercise responses",
		},
	},
	{
		Topic: TopicStrategy,
		Title: "B2B Meal-Planning SaaS",
		Description: "A meal-planning platform sold to corporate wellness programs, syncing with smart kitchen " +
			"appliances in office cafeterias.",
		Metrics: []string{"Sales-led growth", "Annual contracts", "Pilot with 3 mid-size employers"},
	},
	{
		Topic: TopicStrategy,
		Title: "Creator Analytics App",
		Description: "A mobile-first analytics dashboard for independent video creators, monetized through a " +
			"freemium subscription.",
		Metrics: []string{"Product-led growth", "Freemium to Pro conversion", "Community partnerships"},
	},
}

// ExamplesFor returns the example cards of topic t, in display order. Topics without a gallery return nil.
func ExamplesFor(t Topic) []ExampleCard {
	var cards []ExampleCard
	for _, c := range exampleCards {
		if c.Topic == t {
			cards = append(cards, c)
		}
	}
	return cards
}

// Feature is a selling point shown on the landing page.
type Feature struct {
	Title       string
	Description string
}

// LandingFeatures are the landing page highlights.
var LandingFeatures = []Feature{
	{Title: "AI-Powered Startup Guide", Description: "Get tailored insights to navigate every stage of your startup journey"},
	{Title: "Find the Right Co-Founder", Description: "AI-driven matchmaking to connect with like-minded entrepreneurs"},
	{Title: "Lightning Fast", Description: "Instant responses and suggestions that keep you in flow"},
}

// Tool is a dashboard entry linking to one of the views.
type Tool struct {
	Title       string
	Description string
	Link        string
}

// DashboardTools are the dashboard entries.
var DashboardTools = []Tool{
	{Title: "Smart AI Assistants", Description: "Access a suite of AI-powered assistants for expert support.", Link: "/idea-validation"},
	{Title: "Find Co-Founder", Description: "Connect with like-minded entrepreneurs.", Link: "/find-cofounder"},
	{Title: "Daily News", Description: "Instant startup news to keep you on track.", Link: "/news"},
}

// Founder is a profile of the co-founder gallery.
type Founder struct {
	Name       string
	Role       string
	Location   string
	Skills     []string
	Experience string
	Bio        string
	MatchScore int
	Avatar     string
	Interests  []string
}

// Founders is the mock co-founder gallery.
var Founders = []Founder{
	{
		Name:       "Sarah Chen",
		Role:       "Technical Co-Founder",
		Location:   "San Francisco, CA",
		Skills:     []string{"Full-Stack Development", "AI/ML", "System Architecture"},
		Experience: "Ex-Google, Stanford CS",
		Bio: "Passionate about building scalable AI solutions. Looking for a business-minded co-founder to " +
			"revolutionize enterprise software.",
		MatchScore: 95,
		Avatar:     "https://images.unsplash.com/photo-1494790108377-be9c29b29330?w=400",
		Interests:  []string{"AI", "Enterprise Software", "Cloud Computing"},
	},
	{
		Name:       "Alex Rivera",
		Role:       "Business Co-Founder",
		Location:   "New York, NY",
		Skills:     []string{"Growth Strategy", "Sales", "Product Management"},
		Experience: "Harvard MBA, Ex-McKinsey",
		Bio: "Serial entrepreneur with 2 successful exits. Seeking a technical co-founder for my next venture " +
			"in FinTech.",
		MatchScore: 88,
		Avatar:     "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400",
		Interests:  []string{"FinTech", "B2B SaaS", "Blockchain"},
	},
	{
		Name:       "Emily Zhang",
		Role:       "Product Co-Founder",
		Location:   "Austin, TX",
		Skills:     []string{"Product Design", "UX Research", "Data Analytics"},
		Experience: "Ex-Airbnb Product Lead",
		Bio: "Product leader with a passion for creating delightful user experiences. Looking for a technical " +
			"co-founder to build the next-gen social platform.",
		MatchScore: 92,
		Avatar:     "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=400",
		Interests:  []string{"Social Media", "Consumer Tech", "Mobile Apps"},
	},
}

// FounderSkills are the skill filters offered above the gallery.
var FounderSkills = []string{
	"Full-Stack Development",
	"AI/ML",
	"Product Management",
	"UX/UI Design",
	"Sales",
	"Marketing",
	"Data Science",
	"Blockchain",
}

// FilterFounders returns the founders matching query and holding every skill in skills. The query is a
// case-insensitive substring over name, role, location, skills and interests; an empty query matches all.
func FilterFounders(founders []Founder, query string, skills []string) []Founder {
	query = strings.ToLower(strings.TrimSpace(query))

	var res []Founder
	for _, f := range founders {
		if query != "" && !f.matches(query) {
			continue
		}
		if !f.hasSkills(skills) {
			continue
		}
		res = append(res, f)
	}
	return res
}

func (f Founder) matches(query string) bool {
	fields := []string{f.Name, f.Role, f.Location}
	fields = append(fields, f.Skills...)
	fields = append(fields, f.Interests...)
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

func (f Founder) hasSkills(skills []string) bool {
	for _, s := range skills {
		if !slices.Contains(f.Skills, s) {
			return false
		}
	}
	return true
}
