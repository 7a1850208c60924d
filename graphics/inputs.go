package graphics

import (
	"fmt"
	"strings"
)

// Input is a named per-frame input an effect program may declare.
type Input uint8

const (
	InputTime Input = 1 << iota
	InputResolution
	InputZoom
	InputOffset
	InputPrevFrame
)

// Uniform names as they appear in effect source text.
const (
	NameTime       = "time"
	NameResolution = "resolution"
	NameZoom       = "zoom"
	NameOffset     = "offset"
	NamePrevFrame  = "prev_frame"
)

var inputNames = []struct {
	input Input
	name  string
}{
	{InputTime, NameTime},
	{InputResolution, NameResolution},
	{InputZoom, NameZoom},
	{InputOffset, NameOffset},
	{InputPrevFrame, NamePrevFrame},
}

// AllInputs lists every recognized input in declaration order.
func AllInputs() []Input {
	out := make([]Input, len(inputNames))
	for i, n := range inputNames {
		out[i] = n.input
	}
	return out
}

// InputByName maps a uniform name to its Input.
func InputByName(name string) (Input, bool) {
	for _, n := range inputNames {
		if n.name == name {
			return n.input, true
		}
	}
	return 0, false
}

func (in Input) String() string {
	for _, n := range inputNames {
		if n.input == in {
			return n.name
		}
	}
	return fmt.Sprintf("Input(%d)", uint8(in))
}

// InputSet is the set of named inputs a compiled program declares. It is
// produced once at compile time and consulted before every conditional bind.
type InputSet uint8

func (s InputSet) Has(in Input) bool { return s&InputSet(in) != 0 }

func (s InputSet) With(in Input) InputSet { return s | InputSet(in) }

func (s InputSet) String() string {
	var names []string
	for _, n := range inputNames {
		if s.Has(n.input) {
			names = append(names, n.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Channel is one of the four color channels of a texel.
type Channel uint8

const (
	ChannelR Channel = 1 << iota
	ChannelG
	ChannelB
	ChannelA
)

var channelLetters = []struct {
	ch     Channel
	letter byte
}{
	{ChannelR, 'R'},
	{ChannelG, 'G'},
	{ChannelB, 'B'},
	{ChannelA, 'A'},
}

// Index returns the component index of the channel within an RGBA texel.
func (c Channel) Index() int {
	for i, l := range channelLetters {
		if l.ch == c {
			return i
		}
	}
	return -1
}

// ChannelSet is a set of RGBA channels.
type ChannelSet uint8

func (s ChannelSet) Has(c Channel) bool { return s&ChannelSet(c) != 0 }

func (s ChannelSet) Empty() bool { return s == 0 }

// Channels returns the members in RGBA order.
func (s ChannelSet) Channels() []Channel {
	var out []Channel
	for _, l := range channelLetters {
		if s.Has(l.ch) {
			out = append(out, l.ch)
		}
	}
	return out
}

func (s ChannelSet) String() string {
	var b strings.Builder
	for _, l := range channelLetters {
		if s.Has(l.ch) {
			b.WriteByte(l.letter)
		}
	}
	return b.String()
}

// ParseChannels parses a channel list such as "BA" or "r,g".
func ParseChannels(text string) (ChannelSet, error) {
	var s ChannelSet
	for _, r := range strings.ToUpper(text) {
		switch r {
		case ' ', ',':
			continue
		}
		found := false
		for _, l := range channelLetters {
			if rune(l.letter) == r {
				s |= ChannelSet(l.ch)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("invalid channel %q in %q", r, text)
		}
	}
	return s, nil
}

// MarshalYAML writes the set in its letter form.
func (s ChannelSet) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML accepts the letter form, e.g. "BA".
func (s *ChannelSet) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err != nil {
		return err
	}
	parsed, err := ParseChannels(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
