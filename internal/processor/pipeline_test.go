package processor

import (
	"context"
	"testing"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/matching"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCV = `Jane Doe
jane@x.com
SUMMARY
Backend engineer who grew revenue by 30% across 200 users.
EXPERIENCE
Engineer at Acme
Jan 2020 - Present
• Built systems
SKILLS
Python, SQL, Leadership`

const sampleJD = "We need a Python and Java engineer with leadership."

func TestMatchCVToJob(t *testing.T) {
	p := NewMatchPipeline(newTestAdapter(defaultReplies), WithPipelineLogger(zerolog.Nop()))

	out, err := p.MatchCVToJob(context.Background(), sampleCV, sampleJD)
	require.NoError(t, err)

	assert.Equal(t, "Technology", out.Industry.Industry)
	assert.Equal(t, []string{"python", "leadership"}, out.MatchResult.DirectMatches)
	assert.Equal(t, []string{"sql"}, out.MatchResult.SemanticMatches)
	assert.Equal(t, 100.0, out.MatchResult.MatchPercentage)
	assert.Equal(t, 50.0, out.MatchResult.TechMatchPercentage)
	assert.Equal(t, 100.0, out.MatchResult.SoftMatchPercentage)
	assert.InDelta(t, 65.0, out.MatchResult.WeightedMatchPercentage, 1e-9)

	assert.Equal(t, []string{"python", "leadership"}, out.MatchResult.KeywordAnalysis.PresentKeywords)
	assert.Equal(t, []string{"java"}, out.MatchResult.KeywordAnalysis.MissingKeywords)

	assert.Equal(t, 80.0, out.Analysis.ATSScore)
	assert.Equal(t, 50.0, out.Analysis.CompetitiveScore, "competitive falls back")
	assert.Equal(t, "average", out.Analysis.Competitive.Standing)
	assert.NotEmpty(t, out.Analysis.Achievements.QuantifiableAchievements)

	assert.Equal(t, "# Jane Doe", out.OptimizedCV)
	assert.Equal(t, "Dear hiring team", out.CoverLetter)

	assert.True(t, out.Degraded)
	assert.Equal(t, []string{StageCompetitive}, out.DegradedStages)
}

func TestMatchCVToJobAllStagesDegrade(t *testing.T) {
	p := NewMatchPipeline(enrichment.NewAdapter(nil, enrichment.WithLogger(zerolog.Nop())), WithPipelineLogger(zerolog.Nop()))

	out, err := p.MatchCVToJob(context.Background(), sampleCV, sampleJD)
	require.NoError(t, err, "enrichment failures never abort the pipeline")

	assert.Equal(t, "General", out.Industry.Industry)
	assert.Equal(t, 0.0, out.MatchResult.MatchPercentage)
	assert.Equal(t, 50.0, out.Analysis.ATSScore)
	assert.Equal(t, sampleCV, out.OptimizedCV, "optimized CV falls back to the original text")
	assert.Empty(t, out.CoverLetter)
	assert.Equal(t, []string{
		StageIndustry, StageCVSkills, StageJobRequirements,
		StageATS, StageCompetitive, StageOptimizeCV, StageCoverLetter,
	}, out.DegradedStages, "semantic matching is skipped when there is nothing left to match")
}

func TestMatchCVToJobRejectsEmptyInput(t *testing.T) {
	p := NewMatchPipeline(newTestAdapter(defaultReplies))
	_, err := p.MatchCVToJob(context.Background(), "  ", sampleJD)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, CodeOf(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchCVToJobCustomWeights(t *testing.T) {
	p := NewMatchPipeline(newTestAdapter(defaultReplies),
		WithPipelineLogger(zerolog.Nop()),
		WithWeights(matching.Weights{Tech: 0.5, Soft: 0.5}))
	out, err := p.MatchCVToJob(context.Background(), sampleCV, sampleJD)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, out.MatchResult.WeightedMatchPercentage, 1e-9)
}

func TestMatchCVToJobInvalidWeightsKeepDefault(t *testing.T) {
	for _, w := range []matching.Weights{{Tech: 2, Soft: 0}, {Tech: -0.5, Soft: 1.5}, {}} {
		p := NewMatchPipeline(newTestAdapter(defaultReplies), WithPipelineLogger(zerolog.Nop()), WithWeights(w))
		assert.Equal(t, matching.DefaultWeights, p.weights)
	}
}

func TestMatchCVToJobConvertsHTMLJobDescription(t *testing.T) {
	model := scriptedModel(defaultReplies)
	p := NewMatchPipeline(enrichment.NewAdapter(model, enrichment.WithLogger(zerolog.Nop()), enrichment.WithRetryPolicy(0, 0)))

	_, err := p.MatchCVToJob(context.Background(), sampleCV, "<p>We need <strong>Python</strong></p>")
	require.NoError(t, err)

	first := model.Received()[0]
	assert.Contains(t, first[len(first)-1].Content, "We need **Python**")
	assert.NotContains(t, first[len(first)-1].Content, "<strong>")
}
