package artifact_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/artifact"
)

func TestExtract_ParsesIdentifierTypeTitleAndContent(t *testing.T) {
	text := "Here is the plan.\n\n" +
		`:::artifact{identifier="launch-plan" type="document" title="Launch Plan"}` + "\n" +
		"```markdown\n# Launch Plan\n\nStep one.\n```\n" +
		":::\n\nLet me know what you think."

	got := artifact.Extract(text)
	require.Len(t, got, 1)
	require.Equal(t, "launch-plan", got[0].Identifier)
	require.Equal(t, "document", got[0].Type)
	require.Equal(t, "Launch Plan", got[0].Title)
	require.Equal(t, "# Launch Plan\n\nStep one.", got[0].Content)
}

func TestExtract_FallsBackToTitleWhenIdentifierMissing(t *testing.T) {
	text := `:::artifact{title="Risk Register"}` + "\n" +
		"```\nsome content\n```\n:::"

	got := artifact.Extract(text)
	require.Len(t, got, 1)
	require.Empty(t, got[0].Identifier)
	require.Equal(t, "risk_register", got[0].DedupeKey("conv1")[len("conv1:"):])
}

func TestExtract_SkipsBlockWithNoFencedCode(t *testing.T) {
	text := `:::artifact{title="Empty"}` + "\nno code here\n:::"

	got := artifact.Extract(text)
	require.Empty(t, got)
}

func TestExtract_HandlesMultipleBlocks(t *testing.T) {
	text := `:::artifact{identifier="a"}` + "\n```\nfirst\n```\n:::\n\n" +
		"some prose in between\n\n" +
		`:::artifact{identifier="b"}` + "\n```\nsecond\n```\n:::"

	got := artifact.Extract(text)
	require.Len(t, got, 2)
	require.Equal(t, "first", got[0].Content)
	require.Equal(t, "second", got[1].Content)
}

func TestExtract_IgnoresUnterminatedBlock(t *testing.T) {
	text := `:::artifact{identifier="a"}` + "\n```\nfirst\n```\nno closing fence"

	got := artifact.Extract(text)
	require.Empty(t, got)
}

func TestArtifact_DedupeKeyDefaultsWhenNoIdentifierOrTitle(t *testing.T) {
	a := artifact.Artifact{}
	require.Equal(t, "conv1:default-artifact", a.DedupeKey("conv1"))
}
