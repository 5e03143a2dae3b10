package resolver

import (
	"github.com/kingrea/flowsem/internal/config"
	"github.com/kingrea/flowsem/internal/flow"
	"github.com/kingrea/flowsem/internal/metrics"
)

// Options tunes a resolution pass.
type Options struct {
	// DefaultInPort and DefaultOutPort name omitted ports.
	DefaultInPort  string
	DefaultOutPort string
	// TypePolicy picks the inherited type when a port carries several.
	TypePolicy TypePolicy
	// MaxParallel bounds how many flows resolve at once; 0 means GOMAXPROCS.
	MaxParallel int
	// CheckOutPorts reports output ports that feed more than one connection.
	CheckOutPorts bool
	// Trace reports Created/Found outcomes as info diagnostics.
	Trace bool
	// Logf receives one line per skipped chain. Optional.
	Logf func(format string, args ...any)
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		DefaultInPort:  flow.DefaultInPort,
		DefaultOutPort: flow.DefaultOutPort,
		TypePolicy:     TypePolicyFirst,
	}
}

// OptionsFromConfig maps the project's resolver settings onto Options.
func OptionsFromConfig(rc config.ResolverConfig) (Options, error) {
	policy, err := ParseTypePolicy(rc.TypePolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		DefaultInPort:  rc.DefaultInPort,
		DefaultOutPort: rc.DefaultOutPort,
		TypePolicy:     policy,
		MaxParallel:    rc.MaxParallel,
		CheckOutPorts:  rc.CheckOutPorts,
		Trace:          rc.Trace,
	}.normalized(), nil
}

func (o Options) normalized() Options {
	if o.DefaultInPort == "" {
		o.DefaultInPort = flow.DefaultInPort
	}
	if o.DefaultOutPort == "" {
		o.DefaultOutPort = flow.DefaultOutPort
	}
	if o.TypePolicy == "" {
		o.TypePolicy = TypePolicyFirst
	}
	if o.MaxParallel < 0 {
		o.MaxParallel = 0
	}
	return o
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}
