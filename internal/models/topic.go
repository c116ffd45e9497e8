package models

import (
	"errors"
	"fmt"
)

// Topic is one advisory category of the assistant. The set is closed: every Topic value used by the
// application is one of the constants below, and ParseTopic is the only way to turn user input into one.
type Topic string

const (
	// TopicIdeation validates and refines a raw startup idea.
	TopicIdeation Topic = "ideation"
	// TopicMarket analyzes industry trends, competitors and market opportunities.
	TopicMarket Topic = "market"
	// TopicStrategy builds product positioning, business model and go-to-market plans.
	TopicStrategy Topic = "strategy"
	// TopicFunding covers fund allocation and investor outreach.
	TopicFunding Topic = "funding"
	// TopicPitch drafts pitch deck material.
	TopicPitch Topic = "pitch"
)

// Topics lists every topic in the order the assistant shows its tabs.
var Topics = []Topic{TopicIdeation, TopicMarket, TopicStrategy, TopicFunding, TopicPitch}

// ErrUnknownTopic is returned by ParseTopic for strings outside the topic set.
var ErrUnknownTopic = errors.New("unknown topic")

// ParseTopic converts s into a Topic, failing with ErrUnknownTopic if s names no topic.
func ParseTopic(s string) (Topic, error) {
	t := Topic(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTopic, s)
	}
	return t, nil
}

// Valid reports whether t is one of the declared topics.
func (t Topic) Valid() bool {
	switch t {
	case TopicIdeation, TopicMarket, TopicStrategy, TopicFunding, TopicPitch:
		return true
	}
	return false
}

// Label is the tab caption of the topic.
func (t Topic) Label() string {
	switch t {
	case TopicIdeation:
		return "Ideation Assistant"
	case TopicMarket:
		return "Market Analysis"
	case TopicStrategy:
		return "Strategy Builder"
	case TopicFunding:
		return "Funding Assistant"
	case TopicPitch:
		return "Pitch Deck Generator"
	}
	return string(t)
}

// Placeholder is the hint shown in the empty input box while the topic is active.
func (t Topic) Placeholder() string {
	switch t {
	case TopicIdeation:
		return "Describe your startup idea..."
	case TopicMarket:
		return "Describe your market analysis..."
	}
	return "Share your thoughts..."
}

// StatusLabel is shown while a request issued from the topic is in flight.
func (t Topic) StatusLabel() string {
	switch t {
	case TopicIdeation:
		return "Ideating..."
	case TopicMarket:
		return "Analyzing market..."
	case TopicStrategy:
		return "Building strategy..."
	case TopicFunding:
		return "Planning funding..."
	case TopicPitch:
		return "Drafting pitch deck..."
	}
	return "Working..."
}

// Greeting is the assistant message every topic log starts with.
func (t Topic) Greeting() string {
	switch t {
	case TopicIdeation:
		return "Hi there! I'm your AI Ideation Partner. Ready to validate and refine your startup ideas? " +
			"Let's start with your core concept:"
	case TopicMarket:
		return "🔍 Welcome to Market Analyst! I can help you analyze industry trends, competitors, and market " +
			"opportunities.\n\nTry an example below or describe your market:"
	case TopicStrategy:
		return "📊 Welcome to Strategy Planner! Let's build a roadmap for your startup's success, covering product " +
			"positioning, business models, and go-to-market strategies."
	case TopicFunding:
		return "💰 Welcome to Funding Guide! Need help with investment strategies, pitching to VCs, or exploring " +
			"alternative funding sources? Let's get started!"
	case TopicPitch:
		return "Let's generate a pitch deck for your startup idea!!"
	}
	return ""
}
