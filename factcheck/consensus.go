package factcheck

import (
	"net/url"
	"sort"
	"strings"

	"github.com/Luismorlan/factfeed/model"
)

const (
	strongConsensusShare   = 0.75
	moderateConsensusShare = 0.5
)

// EvidenceSummary holds the fields derived from an evidence array.
type EvidenceSummary struct {
	NumSources int
	Consensus  model.SourceConsensus
	URLs       []string
}

// Summarize derives the number of distinct sources and their consensus from
// the evidence items. A source is the host of the evidence url, or the
// declared source name when there is no url. Consensus is the share of the
// most common stance among items that declare one.
func Summarize(items []Evidence) EvidenceSummary {
	out := EvidenceSummary{Consensus: model.ConsensusNone, URLs: []string{}}
	sources := map[string]bool{}
	stances := map[string]int{}
	withStance := 0

	for _, item := range items {
		if key := sourceKey(item); key != "" {
			sources[key] = true
		}
		if item.URL != "" {
			out.URLs = append(out.URLs, item.URL)
		}
		if stance := strings.ToLower(strings.TrimSpace(item.Stance)); stance != "" {
			stances[stance]++
			withStance++
		}
	}
	out.NumSources = len(sources)
	sort.Strings(out.URLs)

	if withStance == 0 {
		return out
	}
	dominant := 0
	for _, n := range stances {
		if n > dominant {
			dominant = n
		}
	}
	share := float64(dominant) / float64(withStance)
	switch {
	case share >= strongConsensusShare:
		out.Consensus = model.ConsensusStrong
	case share >= moderateConsensusShare:
		out.Consensus = model.ConsensusModerate
	default:
		out.Consensus = model.ConsensusMixed
	}
	return out
}

func sourceKey(item Evidence) string {
	if item.URL != "" {
		if u, err := url.Parse(item.URL); err == nil && u.Host != "" {
			return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	return strings.ToLower(strings.TrimSpace(item.Source))
}
