package bayesnet

import (
	"sync"
	"time"

	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/metrics"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
	"github.com/google/uuid"
)

// DefaultSlowEngineCall is the engine call duration above which a warning is logged.
const DefaultSlowEngineCall = 50 * time.Millisecond

// Config configures a Model
type Config struct {
	// ModelID names the model in logs, metrics and events. Defaults to a random UUID.
	ModelID string

	// SlowEngineCall is the threshold for logging engine calls made under the graph lock.
	SlowEngineCall time.Duration

	// Advisory enables best-effort recovery of invalid functions when the caller
	// passes no Advisor of its own. Warnings go to the logger.
	Advisory bool

	// Advisor receives recovery warnings for every call that does not override it.
	Advisor Advisor

	Logger  logging.Logger    // nil means NopLogger
	Metrics *metrics.Registry // optional
	Events  *events.Bus       // optional
}

// DefaultConfig returns a config with a random model ID
func DefaultConfig() Config {
	return Config{
		ModelID:        uuid.NewString(),
		SlowEngineCall: DefaultSlowEngineCall,
	}
}

// Validate checks the config values
func (c Config) Validate() error {
	return validation.NewConfigValidator("bayesnet.Config").
		When(c.ModelID != "", func(cv *validation.ConfigValidator) {
			cv.Custom("ModelID", func() error { return validation.ValidateIdentifier(c.ModelID) })
		}).
		RangeDuration("SlowEngineCall", c.SlowEngineCall, 0, time.Minute).
		Validate()
}

func (c Config) withDefaults() Config {
	c.ModelID = validation.DefaultOr(c.ModelID, uuid.NewString())
	c.SlowEngineCall = validation.DefaultOrDuration(c.SlowEngineCall, DefaultSlowEngineCall)
	if c.Logger == nil {
		c.Logger = logging.NewNopLogger()
	}
	return c
}

// Warning is a problem that was recovered from instead of failing the call.
type Warning struct {
	Network string
	Node    string
	Token   string
	Message string
}

// Advisor receives warnings from best-effort recovery.
type Advisor interface {
	Advise(w Warning)
}

// AdvisorFunc adapts a function to Advisor.
type AdvisorFunc func(Warning)

func (f AdvisorFunc) Advise(w Warning) { f(w) }

// Warnings collects warnings. The zero value is ready to use.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

func (ws *Warnings) Advise(w Warning) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.list = append(ws.list, w)
}

// List returns the warnings collected so far.
func (ws *Warnings) List() []Warning {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]Warning(nil), ws.list...)
}

// logAdvisor writes warnings to the model logger.
type logAdvisor struct {
	log logging.Logger
}

func (a logAdvisor) Advise(w Warning) {
	a.log.Warn("recovered from invalid input",
		logging.Network(w.Network),
		logging.Node(w.Node),
		logging.String("token", w.Token),
		logging.String("warning", w.Message),
	)
}

// TableOption adjusts a single table assignment.
type TableOption func(*tableOptions)

type tableOptions struct {
	advisor Advisor
}

// WithAdvisor switches the call to best-effort mode, reporting to a.
func WithAdvisor(a Advisor) TableOption {
	return func(o *tableOptions) {
		o.advisor = a
	}
}

// Strict disables best-effort mode for the call even if the model enables it.
func Strict() TableOption {
	return func(o *tableOptions) {
		o.advisor = nil
	}
}
