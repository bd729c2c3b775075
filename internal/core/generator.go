package core

import (
	"context"
	"fmt"
)

// NewUnavailableGenerator returns a TextGenerator that fails every call with
// ErrProviderUnavailable, without performing any I/O. The factory falls back
// to it when no backend can be constructed, so the pipeline keeps a non-nil
// dependency and degrades per call instead of at startup.
func NewUnavailableGenerator(reason error) TextGenerator {
	return &unavailableGenerator{reason: reason}
}

type unavailableGenerator struct {
	reason error
}

func (g *unavailableGenerator) Generate(context.Context, string, float32, int) (string, error) {
	if g.reason != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, g.reason)
	}
	return "", ErrProviderUnavailable
}
