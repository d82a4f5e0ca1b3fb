// Melodex - Personal Music Recommendation Engine
// Copyright 2026 Melodex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex-app/melodex

package recommend

import (
	"sort"

	"github.com/melodex-app/melodex/internal/models"
)

// Combined artist similarity blend weights.
const (
	artistSimGenreWeight = 0.7
	artistSimPopWeight   = 0.3
)

// BuildArtistSimilarities derives artist relatedness from shared genres
// and popularity proximity. Pairs with no shared genre or a combined
// score below cfg.MinArtistSimilarity are dropped. Each unordered pair
// is stored once with ArtistA < ArtistB, sorted by combined score
// descending then pair.
func BuildArtistSimilarities(cfg Config, artists map[string]models.Artist) []ArtistSimilarity {
	ids := make([]string, 0, len(artists))
	genreSets := make(map[string]map[string]struct{}, len(artists))
	for id, a := range artists {
		ids = append(ids, id)
		genreSets[id] = a.GenreSet()
	}
	sort.Strings(ids)

	var sims []ArtistSimilarity
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			ga, gb := genreSets[a], genreSets[b]

			shared := 0
			for g := range ga {
				if _, ok := gb[g]; ok {
					shared++
				}
			}
			if shared == 0 {
				continue
			}

			union := len(ga) + len(gb) - shared
			jaccard := float64(shared) / float64(union)

			diff := artists[a].Popularity - artists[b].Popularity
			if diff < 0 {
				diff = -diff
			}
			popSim := 1.0 - float64(diff)/100.0

			combined := artistSimGenreWeight*jaccard + artistSimPopWeight*popSim
			if combined < cfg.MinArtistSimilarity {
				continue
			}

			sims = append(sims, ArtistSimilarity{
				ArtistA:      a,
				ArtistB:      b,
				GenreJaccard: jaccard,
				PopSimilar:   popSim,
				Combined:     combined,
			})
		}
	}

	sort.Slice(sims, func(i, j int) bool {
		if sims[i].Combined != sims[j].Combined {
			return sims[i].Combined > sims[j].Combined
		}
		if sims[i].ArtistA != sims[j].ArtistA {
			return sims[i].ArtistA < sims[j].ArtistA
		}
		return sims[i].ArtistB < sims[j].ArtistB
	})
	return sims
}
