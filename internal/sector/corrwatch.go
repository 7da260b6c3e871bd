package sector

import (
	"fmt"
	"sort"

	"github.com/sawpanic/pairscreen/internal/universe"
)

// correlationWatchThreshold flags sector pairs whose average cross
// correlation is high enough that diversifying across them buys little.
const correlationWatchThreshold = 0.7

func sectorPairKey(a, b universe.Sector) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// ObserveCorrelation records a cross-sector correlation estimate, typically
// the average pair correlation between two sectors from a screening run.
// Same-sector observations are ignored.
func (m *Manager) ObserveCorrelation(a, b universe.Sector, correlation float64) {
	if a == b {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectorCorr[sectorPairKey(a, b)] = correlation
}

// CorrelationWatch lists the sector pairs whose recorded correlation exceeds
// the watch threshold, formatted "A|B corr=x.xx", sorted by key.
func (m *Manager) CorrelationWatch() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for key, corr := range m.sectorCorr {
		if corr > correlationWatchThreshold {
			out = append(out, fmt.Sprintf("%s corr=%.2f", key, corr))
		}
	}
	sort.Strings(out)
	return out
}
