package services

import "github.com/MegaGrindStone/founder-web-ui/internal/models"

// systemPrompt is the instruction the LLM advisors send ahead of the user's text.
func systemPrompt(topic models.Topic) string {
	switch topic {
	case models.TopicIdeation:
		return "You are an Idea Validation Specialist. Analyze and validate the user's startup idea: point out " +
			"existing solutions, the core value proposition, the riskiest assumptions and how to test them cheaply."
	case models.TopicMarket:
		return "You are a Market Analysis Specialist. Perform a thorough market analysis for the user's startup " +
			"idea covering competitors, product insights, target audience, marketing strategies, pricing, " +
			"customer sentiment and strategic recommendations."
	case models.TopicStrategy:
		return "You are a Strategic Advisor. Provide strategic guidance on building a scalable and sustainable " +
			"company for the user's startup idea: positioning, business model, go-to-market and milestones."
	case models.TopicFunding:
		return "You are a Fund Distribution Specialist. Provide an optimal fund distribution strategy for the " +
			"user's startup, list investors active in the sector and suggest how to use the funds efficiently."
	case models.TopicPitch:
		return "You are a pitch deck writer. Draft a ten slide pitch deck outline for the user's startup idea, " +
			"one short section per slide: problem, solution, market, product, traction, business model, " +
			"competition, team, financials and the ask."
	}
	return "You are a startup advisor."
}
