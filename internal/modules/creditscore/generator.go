package creditscore

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/smasshh/finmate/internal/domain"
)

// Generator picks the recommendation strategy: generated text when it parses,
// the rule table otherwise. It never returns an error.
type Generator struct {
	textGen domain.TextGenerator
	log     zerolog.Logger
}

// NewGenerator creates a generator. textGen may be nil to always use rules.
func NewGenerator(textGen domain.TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{
		textGen: textGen,
		log:     log.With().Str("component", "credit_recommendations").Logger(),
	}
}

// Recommend returns recommendations for profile and where they came from.
func (g *Generator) Recommend(ctx context.Context, profile FinancialProfile, result ScoreResult) ([]Recommendation, RecommendationSource) {
	if g.textGen != nil {
		text, err := g.textGen.Generate(ctx, BuildPrompt(profile, result))
		if err != nil {
			g.log.Warn().Err(err).Msg("Text generation failed, using rule-based recommendations")
			return RuleRecommendations(profile, result), SourceRules
		}

		recs := ParseRecommendations(text)
		if len(recs) > 0 {
			if len(recs) > maxRecommendations {
				recs = recs[:maxRecommendations]
			}
			return recs, SourceAI
		}
		g.log.Warn().Int("length", len(text)).Msg("Generated text had no recommendations, using rule-based recommendations")
	}
	return RuleRecommendations(profile, result), SourceRules
}
