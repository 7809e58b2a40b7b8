package model

import (
	"fmt"
	"strings"
)

// Channel is an admission category with a reserved share of each department
type Channel string

const (
	// ChannelGeneral is general-merit (central) admission
	ChannelGeneral Channel = "general"
	// ChannelParallel is parallel (paid) admission
	ChannelParallel Channel = "parallel"
	// ChannelMartyrs is the martyrs'-families quota
	ChannelMartyrs Channel = "martyrs"

	// ChannelOpen holds capacity left unquoted when quota fractions sum below 1.
	// Nobody applies through it, so its seats are only filled by overflow backfill.
	ChannelOpen Channel = "open"
)

// Channels lists the admission channels in canonical declaration order
var Channels = []Channel{ChannelGeneral, ChannelParallel, ChannelMartyrs}

// DefaultQuotas is the baseline split used when configuration omits quotas
var DefaultQuotas = []ChannelQuota{
	{Channel: ChannelGeneral, Fraction: 0.60},
	{Channel: ChannelParallel, Fraction: 0.30},
	{Channel: ChannelMartyrs, Fraction: 0.10},
}

func (c Channel) IsValid() bool {
	return c == ChannelGeneral || c == ChannelParallel || c == ChannelMartyrs
}

// Label returns the Arabic label used on exported sheets
func (c Channel) Label() string {
	switch c {
	case ChannelGeneral:
		return "مركزي"
	case ChannelParallel:
		return "الموازي"
	case ChannelMartyrs:
		return "ذوي الشهداء"
	case ChannelOpen:
		return "مقاعد شاغرة"
	}
	return string(c)
}

var channelAliases = map[string]Channel{
	"general":     ChannelGeneral,
	"central":     ChannelGeneral,
	"markazi":     ChannelGeneral,
	"مركزي":       ChannelGeneral,
	"parallel":    ChannelParallel,
	"paid":        ChannelParallel,
	"mawazi":      ChannelParallel,
	"الموازي":     ChannelParallel,
	"موازي":       ChannelParallel,
	"martyrs":     ChannelMartyrs,
	"shuhada":     ChannelMartyrs,
	"ذوي الشهداء": ChannelMartyrs,
	"شهداء":       ChannelMartyrs,
}

// ParseChannel resolves a configured channel name (English, transliterated or Arabic)
func ParseChannel(name string) (Channel, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ch, ok := channelAliases[key]; ok {
		return ch, nil
	}
	return "", fmt.Errorf("unknown channel %q", name)
}

// NormalizeChannel classifies the free-text channel column of a roster.
// Anything that does not mention the martyrs' or parallel channel is general admission.
func NormalizeChannel(raw string) Channel {
	text := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(text, "شهداء"), strings.Contains(text, "martyr"), strings.Contains(text, "shuhada"):
		return ChannelMartyrs
	case strings.Contains(text, "موازي"), strings.Contains(text, "parallel"), strings.Contains(text, "mawazi"):
		return ChannelParallel
	default:
		return ChannelGeneral
	}
}
