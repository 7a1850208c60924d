package renderer

import (
	"fmt"

	"github.com/richinsley/goartstudio/graphics"
)

// FeedbackPair manages two float surfaces for double-buffering, so a program
// can read the output of the previous frame while writing the next one.
type FeedbackPair struct {
	surfaces [2]graphics.Surface
	current  int
	size     int
}

// NewFeedbackPair allocates two size×size surfaces, both cleared to zero.
func NewFeedbackPair(device graphics.Device, size int) (*FeedbackPair, error) {
	p := &FeedbackPair{size: size}
	for i := range p.surfaces {
		s, err := device.NewFloatSurface(size, size)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("failed to create feedback surface %d: %w", i, err)
		}
		device.ClearSurface(s)
		p.surfaces[i] = s
	}
	return p, nil
}

// Current is the index of the slot holding the latest frame.
func (p *FeedbackPair) Current() int { return p.current }

// Read returns the surface holding the latest frame.
func (p *FeedbackPair) Read() graphics.Surface { return p.surfaces[p.current] }

// Write returns the surface the next frame is drawn into.
func (p *FeedbackPair) Write() graphics.Surface { return p.surfaces[1-p.current] }

// Swap makes the written surface current. Called once per feedback frame.
func (p *FeedbackPair) Swap() { p.current = 1 - p.current }

func (p *FeedbackPair) Size() int { return p.size }

// Reset zeroes both surfaces and makes slot 0 current.
func (p *FeedbackPair) Reset(device graphics.Device) {
	for _, s := range p.surfaces {
		device.ClearSurface(s)
	}
	p.current = 0
}

func (p *FeedbackPair) Release() {
	for i, s := range p.surfaces {
		if s != nil {
			s.Release()
			p.surfaces[i] = nil
		}
	}
}
