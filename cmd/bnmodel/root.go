package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-bayesnet/pkg/bayesnet"
	"github.com/dd0wney/cluso-bayesnet/pkg/engine"
	"github.com/dd0wney/cluso-bayesnet/pkg/events"
	"github.com/dd0wney/cluso-bayesnet/pkg/logging"
	"github.com/dd0wney/cluso-bayesnet/pkg/metrics"
	"github.com/dd0wney/cluso-bayesnet/pkg/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// app is the state shared by the subcommands once flags and config are read.
type app struct {
	cfgFile   string
	modelFile string

	cfg     Config
	log     logging.Logger
	metrics *metrics.Registry
	events  *events.Bus

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "bnmodel",
		Short: "Build, audit and inspect multi-network Bayesian model structures",
		Long: `bnmodel loads a model file describing networks, nodes, links, tables and
data sets, builds the model with every structural rule enforced, and reports on it.

Examples:
  bnmodel build -f supply_chain.yaml
  bnmodel check -f supply_chain.yaml --strict
  bnmodel query -f supply_chain.yaml '{ networks { id nodes { id } } }'
  bnmodel serve -f supply_chain.yaml --listen :8089`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, toml or json)")
	pf.StringVarP(&a.modelFile, "file", "f", "", "model file (yaml)")
	pf.String("log-level", "info", "log level: "+strings.Join(logLevels, ", "))
	pf.String("model-id", "", "model identifier (default: the model file name)")
	pf.Bool("advisory", false, "recover from invalid table functions with a warning instead of failing")
	pf.Bool("strict", false, "treat audit warnings as failures")

	cmd.AddCommand(newBuildCmd(a), newCheckCmd(a), newQueryCmd(a), newServeCmd(a))
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.NewJSONLogger(a.errOut, logging.ParseLevel(cfg.LogLevel)).With(logging.Component("bnmodel"))
	a.metrics = metrics.NewRegistry()
	a.events = events.NewBus()
	return nil
}

// readSpec decodes a model file, rejecting unknown keys.
func readSpec(path string) (*bayesnet.ModelSpec, error) {
	if path == "" {
		return nil, errors.New("no model file given (use -f)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var spec bayesnet.ModelSpec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty model file", path)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &spec, nil
}

// modelID picks the configured identifier, else the model file's name when it
// is a valid identifier. An empty result lets the model choose a random one.
func (a *app) modelID() string {
	if a.cfg.ModelID != "" {
		return a.cfg.ModelID
	}
	stem := strings.TrimSuffix(filepath.Base(a.modelFile), filepath.Ext(a.modelFile))
	if validation.ValidateIdentifier(stem) == nil {
		return stem
	}
	return ""
}

// openModel reads the model file and builds it.
func (a *app) openModel() (*bayesnet.Model, error) {
	spec, err := readSpec(a.modelFile)
	if err != nil {
		return nil, err
	}

	m, err := bayesnet.NewModel(engine.NewMemory(), bayesnet.Config{
		ModelID:        a.modelID(),
		SlowEngineCall: a.cfg.SlowEngineCall,
		Advisory:       a.cfg.Advisory,
		Logger:         a.log,
		Metrics:        a.metrics,
		Events:         a.events,
	})
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(a.log, "build model", logging.Model(m.ID()), logging.String("file", a.modelFile))
	if err := m.Build(spec); err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("%s: %w", a.modelFile, err)
	}
	timer.End()
	return m, nil
}
