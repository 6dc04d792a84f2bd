package infer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/readmegen/internal/format"
	"git.home.luguber.info/inful/readmegen/internal/place"
)

func newInferencer(t *testing.T) *Inferencer {
	t.Helper()
	inf, err := New(0)
	require.NoError(t, err)
	return inf
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name      string
		format    format.Format
		placement place.Placement
	}{
		{"ReadmeMarkdownInBuild", format.Markdown, place.Build},
		{"ReadmeTextInBuild", format.Text, place.Build},
		{"ReadmeHtmlInRoot", format.HTML, place.Root},
		{"ReadmePodInRoot", format.Pod, place.Root},
		{"HtmlInRoot", format.HTML, place.Root},
		{"ReadmePod", format.Pod, place.Unknown},
		{"ReadmeInRoot", format.Unknown, place.Root},
		{"Readme", format.Unknown, place.Unknown},
		{"markdown", format.Markdown, place.Unknown},
		{"readmetextinroot", format.Text, place.Root},
		{"HTML", format.HTML, place.Unknown},

		// Names outside the grammar infer nothing.
		{"ReadmeAnyFromPod", format.Unknown, place.Unknown},
		{"BuildNotes", format.Unknown, place.Unknown},
		{"", format.Unknown, place.Unknown},
	}

	inf := newInferencer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inf.Infer(tt.name)
			require.Equal(t, tt.format, got.Format, "format for %q", tt.name)
			require.Equal(t, tt.placement, got.Placement, "placement for %q", tt.name)
		})
	}
}

func TestInferMemoizes(t *testing.T) {
	inf := newInferencer(t)

	first := inf.Infer("ReadmeMarkdownInBuild")
	require.Equal(t, 1, inf.Cached())

	second := inf.Infer("ReadmeMarkdownInBuild")
	require.Equal(t, first, second)
	require.Equal(t, 1, inf.Cached())

	inf.Infer("ReadmePodInRoot")
	require.Equal(t, 2, inf.Cached())
}

func TestInferCacheEviction(t *testing.T) {
	inf, err := New(2)
	require.NoError(t, err)

	inf.Infer("a")
	inf.Infer("b")
	inf.Infer("c")
	require.Equal(t, 2, inf.Cached())

	// Evicted entries are re-derived, not lost.
	got := inf.Infer("a")
	require.Equal(t, Inference{}, got)
}
