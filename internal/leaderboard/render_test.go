package leaderboard

import (
	"strings"
	"testing"

	"github.com/OCAP2/hologram/internal/display"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		data map[int]string
		opts Options
		want string
	}{
		{
			name: "defaults with sparse data",
			data: map[int]string{1: "Alice", 3: "Carol"},
			opts: Options{Title: "Top", VisibleRanks: 3},
			want: "Top\n1. Alice\n2. ---\n3. Carol",
		},
		{
			name: "ranks outside the visible range are ignored",
			data: map[int]string{0: "Zero", 1: "Alice", 2: "Bob", 5: "Eve"},
			opts: Options{VisibleRanks: 2},
			want: "1. Alice\n2. Bob",
		},
		{
			name: "custom template and footer",
			data: map[int]string{2: "Bob", 1: "Alice"},
			opts: Options{Title: "Kills", Template: "#{rank} {name}", VisibleRanks: 2, Footer: "updated hourly"},
			want: "Kills\n#1 Alice\n#2 Bob\nupdated hourly",
		},
		{
			name: "empty name uses placeholder",
			data: map[int]string{1: ""},
			opts: Options{VisibleRanks: 1, Placeholder: "nobody"},
			want: "1. nobody",
		},
		{
			name: "empty data",
			data: nil,
			opts: Options{VisibleRanks: 2},
			want: "1. ---\n2. ---",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.data, tt.opts))
		})
	}
}

func TestRender_DefaultOptions(t *testing.T) {
	got := Render(map[int]string{1: "Alice", 2: "Bob"}, DefaultOptions())
	lines := strings.Split(got, "\n")

	require.Len(t, lines, DefaultVisibleRanks+1)
	assert.Equal(t, DefaultTitle, lines[0])
	assert.Equal(t, "1. Alice", lines[1])
	assert.Equal(t, "2. Bob", lines[2])
	assert.Equal(t, "10. ---", lines[10])
}

func TestHeadItem(t *testing.T) {
	data := map[int]string{1: "Alice", 2: "Bob"}

	assert.Equal(t,
		display.Item{Material: DefaultHeadMaterial, Owner: "Alice"},
		HeadItem(data, Options{}),
	)
	assert.Equal(t,
		display.Item{Material: DefaultHeadMaterial, Texture: "tex"},
		HeadItem(data, Options{HeadMode: HeadTexture, HeadTexture: "tex"}),
	)
	assert.Equal(t,
		display.Item{Material: "skull"},
		HeadItem(nil, Options{HeadMaterial: "skull"}),
	)
}

func TestHeadItem_NoLeaderFallsBackToTexture(t *testing.T) {
	data := map[int]string{2: "Bob"}

	assert.Equal(t,
		display.Item{Material: DefaultHeadMaterial, Texture: "fallback"},
		HeadItem(data, Options{HeadTexture: "fallback"}),
	)
	assert.Equal(t,
		display.Item{Material: DefaultHeadMaterial},
		HeadItem(data, Options{}),
	)
}

func TestParseHeadMode(t *testing.T) {
	tests := []struct {
		in      string
		want    HeadMode
		wantErr bool
	}{
		{"", HeadPlayer, false},
		{"player", HeadPlayer, false},
		{"texture", HeadTexture, false},
		{"none", HeadNone, false},
		{"hat", HeadPlayer, true},
	}
	for _, tt := range tests {
		got, err := ParseHeadMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalize(t *testing.T) {
	o := Options{Title: "", Footer: ""}.Normalize()

	assert.Equal(t, "", o.Title)
	assert.Equal(t, DefaultTemplate, o.Template)
	assert.Equal(t, DefaultVisibleRanks, o.VisibleRanks)
	assert.Equal(t, DefaultPlaceholder, o.Placeholder)
	assert.Equal(t, DefaultHeadMaterial, o.HeadMaterial)

	custom := Options{Template: "{name}", VisibleRanks: 3, Placeholder: "?", HeadMaterial: "skull"}
	assert.Equal(t, custom, custom.Normalize())
}
