package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
)

// TreeConfig holds supervisor tree configuration
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff
	FailureThreshold float64
	// FailureDecay is the rate at which failures decay in seconds
	FailureDecay float64
	// FailureBackoff is the duration to wait when the threshold is exceeded
	FailureBackoff time.Duration
	// ShutdownTimeout is the maximum time to wait for a service to stop
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree supervises the background jobs and the HTTP server in separate layers
type Tree struct {
	root *suture.Supervisor
	jobs *suture.Supervisor
	api  *suture.Supervisor
}

// NewTree creates the supervisor tree. Zero config values take defaults.
func NewTree(log *logger.Logger, cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	log = log.With("component", "supervisor")
	spec := suture.Spec{
		EventHook:        eventHook(log),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	root := suture.New("storefront", spec)
	jobs := suture.New("jobs", spec)
	api := suture.New("api", spec)
	root.Add(jobs)
	root.Add(api)

	return &Tree{root: root, jobs: jobs, api: api}
}

func eventHook(log *logger.Logger) suture.EventHook {
	return func(e suture.Event) {
		kv := make([]interface{}, 0, 2*len(e.Map())+2)
		kv = append(kv, "event", e.String())
		for k, v := range e.Map() {
			kv = append(kv, k, v)
		}
		log.Warn("supervisor event", kv...)
	}
}

// AddJob adds a background job such as the pair table refresher
func (t *Tree) AddJob(svc suture.Service) suture.ServiceToken {
	return t.jobs.Add(svc)
}

// AddAPI adds an API-facing service such as the HTTP server
func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is cancelled
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop in time
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
