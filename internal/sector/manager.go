package sector

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/universe"
)

// Limits are the exposure rules the manager enforces. Emergency values apply
// after EnterEmergencyMode until Reset.
type Limits struct {
	MaxSectorExposureNormal    float64 `yaml:"max_sector_exposure_normal"`
	MaxSectorExposureEmergency float64 `yaml:"max_sector_exposure_emergency"`
	MinActiveSectorsNormal     int     `yaml:"min_active_sectors_normal"`
	MinActiveSectorsEmergency  int     `yaml:"min_active_sectors_emergency"`
	HerfindahlLimit            float64 `yaml:"herfindahl_limit"`
}

// DefaultLimits returns the production exposure rules.
func DefaultLimits() Limits {
	return Limits{
		MaxSectorExposureNormal:    0.25,
		MaxSectorExposureEmergency: 0.20,
		MinActiveSectorsNormal:     4,
		MinActiveSectorsEmergency:  6,
		HerfindahlLimit:            0.50,
	}
}

// activeExposureFloor is the exposure at which a sector counts as active.
const activeExposureFloor = 0.02

// emergencySelfTriggerExposure forces emergency mode when any single sector
// exceeds it during validation.
const emergencySelfTriggerExposure = 0.35

// emergencySelfTriggerActive forces emergency mode when fewer sectors than
// this are active during validation.
const emergencySelfTriggerActive = 3

// Pair is one long/short symbol pair submitted for exposure validation.
type Pair struct {
	Long  string `json:"long"`
	Short string `json:"short"`
}

// Exposure is the tracked state for one sector.
type Exposure struct {
	Sector           universe.Sector `json:"sector"`
	CurrentExposure  float64         `json:"current_exposure"`
	TargetExposure   float64         `json:"target_exposure"`
	MaxExposure      float64         `json:"max_exposure"`
	PairCount        int             `json:"pair_count"`
	AllocatedSymbols []string        `json:"allocated_symbols"`
}

// Decision is the outcome of Validate: accepted, or rejected with the
// violated rules spelled out.
type Decision struct {
	Accepted bool     `json:"accepted"`
	Issues   []string `json:"issues,omitempty"`
}

// Metrics summarizes current diversification health.
type Metrics struct {
	Herfindahl          float64         `json:"herfindahl"`
	ActiveSectors       int             `json:"active_sectors"`
	MaxExposure         float64         `json:"max_exposure"`
	MaxExposureSector   universe.Sector `json:"max_exposure_sector"`
	ExposureCompliant   bool            `json:"exposure_compliant"`
	HerfindahlCompliant bool            `json:"herfindahl_compliant"`
	EmergencyActive     bool            `json:"emergency_active"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Swap suggests moving one pair allocation between sectors.
type Swap struct {
	From universe.Sector `json:"from"`
	To   universe.Sector `json:"to"`
}

// RebalancePlan lists the sectors out of band and the swaps to fix them.
type RebalancePlan struct {
	Overexposed  []universe.Sector `json:"overexposed"`
	Underexposed []universe.Sector `json:"underexposed"`
	Swaps        []Swap            `json:"swaps"`
	Urgent       bool              `json:"urgent"`
}

// urgentExposure marks a rebalance plan urgent when any sector exceeds it.
const urgentExposure = 0.30

// Manager tracks per-sector exposure for the working pair set and enforces
// the diversification rules. Reads take the read lock; Validate and the mode
// transitions take the write lock.
type Manager struct {
	catalog *universe.Catalog
	limits  Limits

	mu          sync.RWMutex
	exposures   map[universe.Sector]*Exposure
	emergency   bool
	initialized bool
	updatedAt   time.Time

	// sectorCorr holds observed cross-sector correlation estimates keyed
	// by canonical sector pair, fed by screening runs.
	sectorCorr map[string]float64
}

// sectorTargets are the strategic allocation targets. Sectors absent here
// carry a zero target and are tolerated only within the max exposure cap.
func sectorTargets() map[universe.Sector]float64 {
	return map[universe.Sector]float64{
		universe.SectorLayer1:           0.20,
		universe.SectorDeFi:             0.25,
		universe.SectorSmartContract:    0.15,
		universe.SectorInteroperability: 0.12,
		universe.SectorInfrastructure:   0.15,
		universe.SectorOracle:           0.05,
		universe.SectorStorage:          0.08,
	}
}

// NewManager builds a manager over the given universe. Call Initialize before
// validating.
func NewManager(catalog *universe.Catalog, limits Limits) *Manager {
	return &Manager{
		catalog:    catalog,
		limits:     limits,
		exposures:  make(map[universe.Sector]*Exposure),
		sectorCorr: make(map[string]float64),
	}
}

// Initialize zeroes all exposures and installs the per-sector targets. It is
// idempotent; re-initializing an already initialized manager resets state but
// keeps the current mode.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetExposuresLocked()
	m.initialized = true
	m.updatedAt = time.Now().UTC()
	log.Debug().Int("sectors", len(m.exposures)).Msg("sector exposures initialized")
}

func (m *Manager) resetExposuresLocked() {
	targets := sectorTargets()
	m.exposures = make(map[universe.Sector]*Exposure, len(universe.AllSectors()))
	for _, s := range universe.AllSectors() {
		m.exposures[s] = &Exposure{
			Sector:         s,
			TargetExposure: targets[s],
			MaxExposure:    m.maxExposureLocked(),
		}
	}
}

func (m *Manager) maxExposureLocked() float64 {
	if m.emergency {
		return m.limits.MaxSectorExposureEmergency
	}
	return m.limits.MaxSectorExposureNormal
}

func (m *Manager) minActiveLocked() int {
	if m.emergency {
		return m.limits.MinActiveSectorsEmergency
	}
	return m.limits.MinActiveSectorsNormal
}

// Validate recomputes sector exposures from the submitted pair set and checks
// the diversification rules. Each pair contributes equal weight through both
// legs, so a sector's exposure is its leg count divided by the number of
// pairs. Validation failures reject; unknown symbols error.
func (m *Manager) Validate(pairSet []Pair) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		m.resetExposuresLocked()
		m.initialized = true
	}

	m.resetExposuresLocked()
	if len(pairSet) == 0 {
		m.updatedAt = time.Now().UTC()
		return Decision{Accepted: false, Issues: []string{"empty pair set"}}, nil
	}

	weight := 1.0 / float64(len(pairSet))
	for _, p := range pairSet {
		for _, symbol := range []string{p.Long, p.Short} {
			s, err := m.catalog.SectorOf(symbol)
			if err != nil {
				return Decision{}, fmt.Errorf("validate pair %s/%s: %w", p.Long, p.Short, err)
			}
			exp := m.exposures[s]
			exp.CurrentExposure += weight
			exp.PairCount++
			exp.AllocatedSymbols = appendUnique(exp.AllocatedSymbols, symbol)
		}
	}
	m.updatedAt = time.Now().UTC()

	decision := m.evaluateLocked()
	m.selfTriggerLocked()
	return decision, nil
}

func (m *Manager) evaluateLocked() Decision {
	var issues []string
	maxExp := m.maxExposureLocked()

	for _, s := range sortedSectors(m.exposures) {
		exp := m.exposures[s]
		if exp.CurrentExposure > maxExp {
			issues = append(issues, fmt.Sprintf("Sector %s exceeds %.0f%% limit (%.1f%%)",
				s, maxExp*100, exp.CurrentExposure*100))
		}
	}

	if active := m.activeSectorsLocked(); active < m.minActiveLocked() {
		issues = append(issues, fmt.Sprintf("Only %d active sectors, need %d", active, m.minActiveLocked()))
	}

	if h := m.herfindahlLocked(); h > m.limits.HerfindahlLimit {
		issues = append(issues, fmt.Sprintf("Herfindahl index %.3f exceeds %.2f limit", h, m.limits.HerfindahlLimit))
	}

	return Decision{Accepted: len(issues) == 0, Issues: issues}
}

// selfTriggerLocked enters emergency mode on severe concentration without
// waiting for the confidence monitor.
func (m *Manager) selfTriggerLocked() {
	if m.emergency {
		return
	}
	for _, exp := range m.exposures {
		if exp.CurrentExposure > emergencySelfTriggerExposure {
			log.Warn().Str("sector", string(exp.Sector)).
				Float64("exposure", exp.CurrentExposure).
				Msg("sector exposure past emergency trigger, tightening limits")
			m.enterEmergencyLocked()
			return
		}
	}
	if active := m.activeSectorsLocked(); active > 0 && active < emergencySelfTriggerActive {
		log.Warn().Int("active_sectors", active).Msg("active sector floor breached, tightening limits")
		m.enterEmergencyLocked()
	}
}

func (m *Manager) activeSectorsLocked() int {
	active := 0
	for _, exp := range m.exposures {
		if exp.CurrentExposure >= activeExposureFloor {
			active++
		}
	}
	return active
}

func (m *Manager) herfindahlLocked() float64 {
	h := 0.0
	for _, exp := range m.exposures {
		h += exp.CurrentExposure * exp.CurrentExposure
	}
	return h
}

// Metrics reports current diversification health.
func (m *Manager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics := Metrics{
		Herfindahl:      m.herfindahlLocked(),
		ActiveSectors:   m.activeSectorsLocked(),
		EmergencyActive: m.emergency,
		UpdatedAt:       m.updatedAt,
	}
	for _, s := range sortedSectors(m.exposures) {
		exp := m.exposures[s]
		if exp.CurrentExposure > metrics.MaxExposure {
			metrics.MaxExposure = exp.CurrentExposure
			metrics.MaxExposureSector = s
		}
	}
	metrics.ExposureCompliant = metrics.MaxExposure <= m.maxExposureLocked()
	metrics.HerfindahlCompliant = metrics.Herfindahl <= m.limits.HerfindahlLimit
	return metrics
}

// Exposures returns a copy of the per-sector state in sector order.
func (m *Manager) Exposures() []Exposure {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Exposure, 0, len(m.exposures))
	for _, s := range sortedSectors(m.exposures) {
		exp := *m.exposures[s]
		exp.AllocatedSymbols = append([]string(nil), exp.AllocatedSymbols...)
		out = append(out, exp)
	}
	return out
}

// RebalancePlan pairs the most overexposed sectors with the most underfilled
// ones. A sector is underexposed when below half its target. The plan is
// urgent when any exposure exceeds 30%.
func (m *Manager) RebalancePlan() RebalancePlan {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan := RebalancePlan{}
	maxExp := m.maxExposureLocked()

	type delta struct {
		sector universe.Sector
		amount float64
	}
	var over, under []delta

	for _, s := range sortedSectors(m.exposures) {
		exp := m.exposures[s]
		switch {
		case exp.CurrentExposure > maxExp:
			over = append(over, delta{sector: s, amount: exp.CurrentExposure - maxExp})
		case exp.TargetExposure > 0 && exp.CurrentExposure < exp.TargetExposure*0.5:
			under = append(under, delta{sector: s, amount: exp.TargetExposure - exp.CurrentExposure})
		}
		if exp.CurrentExposure > urgentExposure {
			plan.Urgent = true
		}
	}

	sort.SliceStable(over, func(i, j int) bool { return over[i].amount > over[j].amount })
	sort.SliceStable(under, func(i, j int) bool { return under[i].amount > under[j].amount })

	for _, d := range over {
		plan.Overexposed = append(plan.Overexposed, d.sector)
	}
	for _, d := range under {
		plan.Underexposed = append(plan.Underexposed, d.sector)
	}
	for i := 0; i < len(over) && i < len(under); i++ {
		plan.Swaps = append(plan.Swaps, Swap{From: over[i].sector, To: under[i].sector})
	}
	// When only one side is out of band, still suggest trimming the worst
	// offender into the least filled target sector.
	if len(plan.Swaps) == 0 && len(over) > 0 && len(under) == 0 {
		if to, ok := m.leastFilledTargetLocked(over[0].sector); ok {
			plan.Swaps = append(plan.Swaps, Swap{From: over[0].sector, To: to})
		}
	}
	return plan
}

func (m *Manager) leastFilledTargetLocked(exclude universe.Sector) (universe.Sector, bool) {
	best := universe.Sector("")
	bestGap := 0.0
	for _, s := range sortedSectors(m.exposures) {
		exp := m.exposures[s]
		if s == exclude || exp.TargetExposure == 0 {
			continue
		}
		gap := exp.TargetExposure - exp.CurrentExposure
		if gap > bestGap {
			bestGap = gap
			best = s
		}
	}
	return best, best != ""
}

// CanAdmit reports whether adding the given weight to a sector would keep it
// within the exposure cap. Pure read.
func (m *Manager) CanAdmit(sector universe.Sector, weight float64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exp, ok := m.exposures[sector]
	if !ok {
		return weight <= m.maxExposureLocked()
	}
	return exp.CurrentExposure+weight <= m.maxExposureLocked()
}

// EnterEmergencyMode tightens the exposure cap to the emergency limit and
// raises the active sector floor. The tightening holds until Reset.
func (m *Manager) EnterEmergencyMode() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterEmergencyLocked()
}

func (m *Manager) enterEmergencyLocked() {
	if m.emergency {
		return
	}
	m.emergency = true
	for _, exp := range m.exposures {
		exp.MaxExposure = m.limits.MaxSectorExposureEmergency
	}
	log.Warn().
		Float64("max_exposure", m.limits.MaxSectorExposureEmergency).
		Int("min_active_sectors", m.limits.MinActiveSectorsEmergency).
		Msg("sector limits in emergency mode")
}

// Reset returns the manager to normal limits and clears exposures.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emergency = false
	m.resetExposuresLocked()
	m.updatedAt = time.Now().UTC()
	log.Info().Msg("sector limits restored to normal mode")
}

// EmergencyActive reports whether emergency limits are in force.
func (m *Manager) EmergencyActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emergency
}

func appendUnique(in []string, s string) []string {
	for _, v := range in {
		if v == s {
			return in
		}
	}
	return append(in, s)
}

func sortedSectors(exposures map[universe.Sector]*Exposure) []universe.Sector {
	out := make([]universe.Sector, 0, len(exposures))
	for s := range exposures {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
