package search

import (
	"testing"

	"github.com/lyzr/secondbrain/cmd/brain/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matches() []vectorstore.Match {
	return []vectorstore.Match{
		{ID: "c1", Score: 0.91, Metadata: map[string]string{"id": "c1", "title": "Go talk", "link": "https://youtu.be/x", "type": "youtube"}},
		{ID: "c2", Score: 0.72, Metadata: map[string]string{"id": "c2", "title": "Rust post", "link": "https://blog.example/rust", "type": "article"}},
		{ID: "c3", Score: 0.40, Metadata: map[string]string{"id": "c3", "title": "Go tweet", "link": "https://x.com/a/status/1", "type": "tweet"}},
	}
}

func ids(ms []vectorstore.Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	f, err := NewFilter()
	require.NoError(t, err)

	tests := []struct {
		expr string
		want []string
	}{
		{"", []string{"c1", "c2", "c3"}},
		{`content_type == "youtube"`, []string{"c1"}},
		{`score > 0.5`, []string{"c1", "c2"}},
		{`title.contains("Go") && score > 0.3`, []string{"c1", "c3"}},
		{`link.startsWith("https://x.com")`, []string{"c3"}},
		{`meta["type"] in ["article", "tweet"]`, []string{"c2", "c3"}},
		{`false`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := f.Apply(tt.expr, matches())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_Invalid(t *testing.T) {
	f, err := NewFilter()
	require.NoError(t, err)

	for _, expr := range []string{
		`score >`,
		`unknown_var == 1`,
		`title`,
		`score + 1`,
	} {
		t.Run(expr, func(t *testing.T) {
			assert.ErrorIs(t, f.Compile(expr), ErrInvalidFilter)
			_, err := f.Apply(expr, matches())
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
	assert.Zero(t, f.CacheSize())
}

func TestFilter_CachesPrograms(t *testing.T) {
	f, err := NewFilter()
	require.NoError(t, err)

	require.NoError(t, f.Compile(`score > 0.1`))
	require.NoError(t, f.Compile(`score > 0.1`))
	_, err = f.Apply(`score > 0.1`, matches())
	require.NoError(t, err)
	assert.Equal(t, 1, f.CacheSize())
}
