package ui

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/sharesave/internal/stats"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0 B/s"},
		{-1, "0 B/s"},
		{512, "512 B/s"},
		{511.6, "512 B/s"},
		{1024, "1.0 KiB/s"},
		{1.5 * 1024 * 1024, "1.5 MiB/s"},
		{2.5 * 1024 * 1024 * 1024, "2.5 GiB/s"},
		{100 * 1024, "100.0 KiB/s"},
		{15 * 1024, "15.0 KiB/s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRate(tt.input))
		})
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1000000, "1,000,000"},
		{14302, "14,302"},
		{123456, "123,456"},
		{-1000, "-1,000"},
		{-12, "-12"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.input))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "30s", FormatDuration(30*time.Second))
	assert.Equal(t, "3m 17s", FormatDuration(3*time.Minute+17*time.Second))
	assert.Equal(t, "1h 02m 03s", FormatDuration(1*time.Hour+2*time.Minute+3*time.Second))
}

func TestFolderPath(t *testing.T) {
	assert.Equal(t, "/", FolderPath(""))
	assert.Equal(t, "/", FolderPath("/"))
	assert.Equal(t, "/books", FolderPath("books"))
	assert.Equal(t, "/books/2021", FolderPath("/books/2021"))
}

func TestEventError(t *testing.T) {
	assert.Equal(t, "error", EventError(Event{Type: UnitFailed}))
	assert.Equal(t, "boom", EventError(Event{Type: UnitFailed, Error: errors.New("boom")}))
}

func TestCompletionSummary(t *testing.T) {
	snap := stats.Snapshot{
		Counters: stats.Counters{
			WalkedFolders: 1200,
			SavedFolders:  12,
			SavedFiles:    48917,
			SavedBytes:    10 * 1024 * 1024,
		},
		Elapsed: 10 * time.Second,
	}
	assert.Equal(t,
		"done ✓  files 48,917  size 10.0 MiB  folders 12  walked 1,200  avg 1.0 MiB/s  time 10s",
		CompletionSummary(snap))

	snap.Failed = true
	assert.Contains(t, CompletionSummary(snap), "done ✗")

	assert.Contains(t, CompletionSummary(stats.Snapshot{}), "avg 0 B/s")
}

func TestTerminalWidthOfNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Zero(t, TerminalWidth(&buf))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Zero(t, TerminalWidth(f))
}
