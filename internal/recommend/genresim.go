// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"sort"

	"github.com/melodex-app/melodex/internal/models"
)

// Combined genre similarity blend weights.
const (
	genreSimJaccardWeight = 0.6
	genreSimOverlapWeight = 0.4
)

// BuildGenreSimilarities derives genre relatedness from session
// co-occurrence. A session is the events falling into the same
// cfg.SessionWindow bucket. Pairs sharing fewer than
// cfg.MinSharedSessions sessions are dropped. Each unordered pair is
// stored once with GenreA < GenreB; query helpers make the relation
// symmetric. Output sorted by combined score descending, then pair.
func BuildGenreSimilarities(cfg Config, events []models.ListeningEvent) []GenreSimilarity {
	bucket := int64(cfg.SessionWindow.Seconds())
	if bucket <= 0 {
		return nil
	}

	// genre -> set of session IDs it appeared in.
	sessions := make(map[string]map[int64]struct{})
	for _, ev := range events {
		if !ev.HasGenre() {
			continue
		}
		g := models.NormalizeGenre(ev.Genre)
		sid := ev.PlayedAt.Unix() / bucket
		set := sessions[g]
		if set == nil {
			set = make(map[int64]struct{})
			sessions[g] = set
		}
		set[sid] = struct{}{}
	}

	genres := make([]string, 0, len(sessions))
	for g := range sessions {
		genres = append(genres, g)
	}
	sort.Strings(genres)

	var sims []GenreSimilarity
	for i := 0; i < len(genres); i++ {
		for j := i + 1; j < len(genres); j++ {
			a, b := genres[i], genres[j]
			sa, sb := sessions[a], sessions[b]

			shared := 0
			for s := range sa {
				if _, ok := sb[s]; ok {
					shared++
				}
			}
			if shared < cfg.MinSharedSessions {
				continue
			}

			union := len(sa) + len(sb) - shared
			jaccard := float64(shared) / float64(union)

			smaller := len(sa)
			if len(sb) < smaller {
				smaller = len(sb)
			}
			overlap := float64(shared) / float64(smaller)

			sims = append(sims, GenreSimilarity{
				GenreA:         a,
				GenreB:         b,
				SharedSessions: shared,
				Jaccard:        jaccard,
				Overlap:        overlap,
				Combined:       genreSimJaccardWeight*jaccard + genreSimOverlapWeight*overlap,
			})
		}
	}

	sort.Slice(sims, func(i, j int) bool {
		if sims[i].Combined != sims[j].Combined {
			return sims[i].Combined > sims[j].Combined
		}
		if sims[i].GenreA != sims[j].GenreA {
			return sims[i].GenreA < sims[j].GenreA
		}
		return sims[i].GenreB < sims[j].GenreB
	})
	return sims
}
