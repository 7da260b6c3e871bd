package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/confidence"
)

// Severity grades an alert.
type Severity string

const (
	SeverityInfo      Severity = "INFO"
	SeverityWarning   Severity = "WARNING"
	SeverityCritical  Severity = "CRITICAL"
	SeverityEmergency Severity = "EMERGENCY"
)

// Alert is one append-only log entry. Only the acknowledged flag ever
// changes after creation.
type Alert struct {
	ID           string    `json:"id"`
	Severity     Severity  `json:"severity"`
	Message      string    `json:"message"`
	Correlation  float64   `json:"correlation"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

// Config are the monitoring thresholds and switches.
type Config struct {
	UpdateFrequencyMinutes           int     `yaml:"update_frequency_minutes"`
	WarningThreshold                 float64 `yaml:"warning_threshold"`
	CriticalThreshold                float64 `yaml:"critical_threshold"`
	ConsecutiveWarningsForAutoAdjust int     `yaml:"consecutive_warnings_for_autoadjust"`
	ConsecutiveCriticalForEmergency  int     `yaml:"consecutive_critical_for_emergency"`
	EnableAlerts                     bool    `yaml:"enable_alerts"`
	EnableAutoAdjust                 bool    `yaml:"enable_auto_adjust"`
	EnableEmergencyShutdown          bool    `yaml:"enable_emergency_shutdown"`
	AutoAdjustFactor                 float64 `yaml:"auto_adjust_factor"`
}

// DefaultConfig returns the production monitoring settings.
func DefaultConfig() Config {
	return Config{
		UpdateFrequencyMinutes:           30,
		WarningThreshold:                 0.87,
		CriticalThreshold:                0.85,
		ConsecutiveWarningsForAutoAdjust: 3,
		ConsecutiveCriticalForEmergency:  1,
		EnableAlerts:                     true,
		EnableAutoAdjust:                 true,
		EnableEmergencyShutdown:          true,
		AutoAdjustFactor:                 0.9,
	}
}

// VerdictSource supplies precomputed compliance verdicts; ticks never run
// the bootstrap inline.
type VerdictSource interface {
	Latest() (*confidence.Verdict, error)
}

// EmergencyControl is the exposure manager hook the monitor pulls on a
// sustained critical breach.
type EmergencyControl interface {
	EnterEmergencyMode()
}

// TickObserver receives tick telemetry. Implementations must not block.
type TickObserver interface {
	ObserveVerdict(correlation float64)
	ObserveAlert(severity string)
}

// Monitor watches the confidence verdict stream and escalates degradation.
type Monitor struct {
	cfg       Config
	source    VerdictSource
	emergency EmergencyControl
	observer  TickObserver // optional

	mu                  sync.Mutex
	monitoring          bool
	alerts              []Alert
	consecutiveWarnings int
	consecutiveCritical int
	emergencyTriggered  bool
	confidenceScale     float64
}

// New builds a monitor. The observer may be nil.
func New(cfg Config, source VerdictSource, emergency EmergencyControl, observer TickObserver) *Monitor {
	if cfg.AutoAdjustFactor <= 0 || cfg.AutoAdjustFactor > 1 {
		cfg.AutoAdjustFactor = 0.9
	}
	return &Monitor{
		cfg:             cfg,
		source:          source,
		emergency:       emergency,
		observer:        observer,
		confidenceScale: 1.0,
	}
}

// Tick evaluates the latest verdict and applies the escalation transitions.
// A missing verdict is not an error state; the tick is simply skipped.
func (m *Monitor) Tick() {
	verdict, err := m.source.Latest()
	if err != nil {
		log.Warn().Err(err).Msg("monitor tick skipped, no verdict")
		return
	}
	c := verdict.Correlation

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.observer != nil {
		m.observer.ObserveVerdict(c)
	}

	switch {
	case c < m.cfg.CriticalThreshold:
		m.consecutiveCritical++
		m.consecutiveWarnings = 0
		m.appendAlertLocked(SeverityCritical, c,
			fmt.Sprintf("Confidence correlation %.4f below critical threshold %.2f", c, m.cfg.CriticalThreshold))
		if m.consecutiveCritical >= m.cfg.ConsecutiveCriticalForEmergency && m.cfg.EnableEmergencyShutdown {
			m.triggerEmergencyLocked(c)
		}

	case c < m.cfg.WarningThreshold:
		m.consecutiveWarnings++
		m.consecutiveCritical = 0
		m.appendAlertLocked(SeverityWarning, c,
			fmt.Sprintf("Confidence correlation %.4f below warning threshold %.2f", c, m.cfg.WarningThreshold))
		if m.consecutiveWarnings >= m.cfg.ConsecutiveWarningsForAutoAdjust && m.cfg.EnableAutoAdjust {
			m.autoAdjustLocked()
		}

	default:
		m.consecutiveWarnings = 0
		m.consecutiveCritical = 0
		m.confidenceScale = 1.0
		if m.emergencyTriggered {
			m.emergencyTriggered = false
			m.appendAlertLocked(SeverityInfo, c,
				fmt.Sprintf("Confidence correlation %.4f recovered, emergency cleared", c))
		}
	}
}

func (m *Monitor) triggerEmergencyLocked(c float64) {
	if m.emergencyTriggered {
		return
	}
	m.emergencyTriggered = true
	m.appendAlertLocked(SeverityEmergency, c, "Sustained critical confidence breach, entering emergency mode")
	if m.emergency != nil {
		m.emergency.EnterEmergencyMode()
	}
	log.Error().Float64("correlation", c).Msg("emergency protocol engaged")
}

func (m *Monitor) autoAdjustLocked() {
	m.confidenceScale *= m.cfg.AutoAdjustFactor
	log.Warn().
		Float64("scale", m.confidenceScale).
		Int("consecutive_warnings", m.consecutiveWarnings).
		Msg("auto-adjust engaged, scaling issued confidence down")
}

func (m *Monitor) appendAlertLocked(severity Severity, correlation float64, message string) {
	if !m.cfg.EnableAlerts && severity != SeverityEmergency {
		return
	}
	m.alerts = append(m.alerts, Alert{
		ID:          uuid.NewString(),
		Severity:    severity,
		Message:     message,
		Correlation: correlation,
		Timestamp:   time.Now().UTC(),
	})
	if m.observer != nil {
		m.observer.ObserveAlert(string(severity))
	}
}

// Alerts returns a copy of the alert log.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Alert(nil), m.alerts...)
}

// Acknowledge flips the acknowledged flag on the alert at index.
func (m *Monitor) Acknowledge(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.alerts) {
		return fmt.Errorf("alert index %d out of range [0,%d)", index, len(m.alerts))
	}
	m.alerts[index].Acknowledged = true
	return nil
}

// ConfidenceScale is the current global scaling applied to issued
// confidence; 1.0 means no adjustment.
func (m *Monitor) ConfidenceScale() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confidenceScale
}

// EmergencyTriggered reports whether the emergency protocol fired and has
// not yet cleared.
func (m *Monitor) EmergencyTriggered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emergencyTriggered
}

// Counters returns the consecutive warning and critical counts.
func (m *Monitor) Counters() (warnings, critical int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consecutiveWarnings, m.consecutiveCritical
}

// Monitoring reports whether the periodic loop is running.
func (m *Monitor) Monitoring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monitoring
}

// Run ticks on the configured cadence until the context ends.
func (m *Monitor) Run(ctx context.Context) {
	m.mu.Lock()
	m.monitoring = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.monitoring = false
		m.mu.Unlock()
	}()

	interval := time.Duration(m.cfg.UpdateFrequencyMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("confidence monitor running")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}
