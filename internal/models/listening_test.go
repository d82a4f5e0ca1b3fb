// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package models

import "testing"

func TestListeningEvent_HasGenre(t *testing.T) {
	tests := []struct {
		name  string
		genre string
		want  bool
	}{
		{name: "normal genre", genre: "indie rock", want: true},
		{name: "empty genre", genre: "", want: false},
		{name: "whitespace only", genre: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ListeningEvent{Genre: tt.genre}
			if got := e.HasGenre(); got != tt.want {
				t.Errorf("HasGenre() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArtist_GenreSet(t *testing.T) {
	a := Artist{Genres: []string{"Indie Rock", "shoegaze", "  ", "indie rock"}}

	set := a.GenreSet()
	if len(set) != 2 {
		t.Fatalf("GenreSet() size = %d, want 2", len(set))
	}
	if _, ok := set["indie rock"]; !ok {
		t.Error("GenreSet() missing normalized 'indie rock'")
	}
	if _, ok := set["shoegaze"]; !ok {
		t.Error("GenreSet() missing 'shoegaze'")
	}
}

func TestNormalizeGenre(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jazz", "jazz"},
		{"  Dream Pop  ", "dream pop"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeGenre(tt.in); got != tt.want {
			t.Errorf("NormalizeGenre(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
