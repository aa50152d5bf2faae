package leaderboard

import "fmt"

// HeadMode selects what the first-place head shows.
type HeadMode int

const (
	// HeadPlayer shows the skin of the rank 1 player.
	HeadPlayer HeadMode = iota
	// HeadTexture always shows Options.HeadTexture.
	HeadTexture
	// HeadNone builds the panel without a head.
	HeadNone
)

// ParseHeadMode converts a config string to a HeadMode.
func ParseHeadMode(s string) (HeadMode, error) {
	switch s {
	case "", "player":
		return HeadPlayer, nil
	case "texture":
		return HeadTexture, nil
	case "none":
		return HeadNone, nil
	default:
		return HeadPlayer, fmt.Errorf("unknown head mode %q", s)
	}
}

const (
	DefaultTitle        = "Leaderboard"
	DefaultTemplate     = "{rank}. {name}"
	DefaultVisibleRanks = 10
	DefaultPlaceholder  = "---"
	DefaultHeadMaterial = "player_head"
)

// Options controls how a leaderboard is rendered.
type Options struct {
	// ID prefixes the ids of both parts. Empty means a fresh random id.
	ID string

	Title string
	// Template formats one rank line; {rank} and {name} are substituted.
	Template     string
	VisibleRanks int
	// Placeholder is shown for ranks without an entry.
	Placeholder string
	Footer      string

	HeadMode     HeadMode
	HeadTexture  string
	HeadMaterial string
	// HeadOffset lifts the head above the spawn location.
	HeadOffset float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Title:        DefaultTitle,
		Template:     DefaultTemplate,
		VisibleRanks: DefaultVisibleRanks,
		Placeholder:  DefaultPlaceholder,
		HeadMode:     HeadPlayer,
		HeadMaterial: DefaultHeadMaterial,
	}
}

// Normalize fills unset fields with defaults. Title and Footer may be empty.
func (o Options) Normalize() Options {
	if o.Template == "" {
		o.Template = DefaultTemplate
	}
	if o.VisibleRanks <= 0 {
		o.VisibleRanks = DefaultVisibleRanks
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.HeadMaterial == "" {
		o.HeadMaterial = DefaultHeadMaterial
	}
	return o
}
