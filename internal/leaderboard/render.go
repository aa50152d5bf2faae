package leaderboard

import (
	"strconv"
	"strings"

	"github.com/OCAP2/hologram/internal/display"
)

// Render builds the panel text for data. Ranks 1..VisibleRanks are listed in
// order; missing ranks show the placeholder and ranks outside the range are
// ignored.
func Render(data map[int]string, opts Options) string {
	opts = opts.Normalize()

	lines := make([]string, 0, opts.VisibleRanks+2)
	if opts.Title != "" {
		lines = append(lines, opts.Title)
	}
	for rank := 1; rank <= opts.VisibleRanks; rank++ {
		name, ok := data[rank]
		if !ok || name == "" {
			name = opts.Placeholder
		}
		r := strings.NewReplacer("{rank}", strconv.Itoa(rank), "{name}", name)
		lines = append(lines, r.Replace(opts.Template))
	}
	if opts.Footer != "" {
		lines = append(lines, opts.Footer)
	}
	return strings.Join(lines, "\n")
}

// HeadItem returns the first-place head for data. With HeadPlayer and no
// rank 1 entry the head falls back to HeadTexture, or to the bare material
// when no texture is configured.
func HeadItem(data map[int]string, opts Options) display.Item {
	opts = opts.Normalize()
	item := display.Item{Material: opts.HeadMaterial}
	switch opts.HeadMode {
	case HeadTexture:
		item.Texture = opts.HeadTexture
	default:
		if owner := data[1]; owner != "" {
			item.Owner = owner
		} else {
			item.Texture = opts.HeadTexture
		}
	}
	return item
}
