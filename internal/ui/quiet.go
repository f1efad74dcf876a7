package ui

import "github.com/bamsammich/sharesave/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats stats.Reader
}

func (p *quietPresenter) Run(events <-chan Event) error {
	for range events {
		// Counters reach the collector through the engine's sink;
		// presenters only read from it.
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	return ""
}
