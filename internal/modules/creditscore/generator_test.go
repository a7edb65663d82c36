package creditscore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTextGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubTextGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestGenerator_UsesGeneratedText(t *testing.T) {
	stub := &stubTextGenerator{text: "- TITLE: A\n- IMPACT: a\n- TIMELINE: now\n- TITLE: B\n- IMPACT: b\n- TIMELINE: later"}
	g := NewGenerator(stub, zerolog.Nop())
	p := poorProfile()

	recs, source := g.Recommend(context.Background(), p, Calculate(p))

	assert.Equal(t, SourceAI, source)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].Title)
	assert.Contains(t, stub.prompt, "372")
	assert.Contains(t, stub.prompt, "Poor")
}

func TestGenerator_CapsGeneratedRecommendations(t *testing.T) {
	var b strings.Builder
	for _, title := range []string{"One", "Two", "Three", "Four", "Five", "Six"} {
		b.WriteString("- TITLE: " + title + "\n- IMPACT: x\n- TIMELINE: y\n")
	}
	g := NewGenerator(&stubTextGenerator{text: b.String()}, zerolog.Nop())
	p := poorProfile()

	recs, source := g.Recommend(context.Background(), p, Calculate(p))

	assert.Equal(t, SourceAI, source)
	assert.Len(t, recs, 4)
	assert.Equal(t, "Four", recs[3].Title)
}

func TestGenerator_FallsBackToRules(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubTextGenerator
	}{
		{"generation error", &stubTextGenerator{err: errors.New("quota exceeded")}},
		{"unparseable text", &stubTextGenerator{text: "Sorry, I cannot help with that."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.gen, zerolog.Nop())
			p := poorProfile()
			r := Calculate(p)

			recs, source := g.Recommend(context.Background(), p, r)

			assert.Equal(t, SourceRules, source)
			assert.Equal(t, RuleRecommendations(p, r), recs)
		})
	}
}

func TestGenerator_NilTextGenerator(t *testing.T) {
	g := NewGenerator(nil, zerolog.Nop())
	p := excellentProfile()

	recs, source := g.Recommend(context.Background(), p, Calculate(p))

	assert.Equal(t, SourceRules, source)
	assert.Equal(t, []Recommendation{genericRecommendation}, recs)
}
