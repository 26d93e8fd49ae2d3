package worker

import (
	"log/slog"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/config"
	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/services"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/agents"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/resolution"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/turn"
)

// KeeperDeps are the collaborators and stores a keeper is assembled from.
// Each call site may use its own collaborator; nil entries fall back to
// Default.
type KeeperDeps struct {
	Default     chat.Collaborator
	Classifier  chat.Collaborator
	Resolver    chat.Collaborator
	Character   chat.Collaborator
	Director    chat.Collaborator
	Synthesizer chat.Collaborator

	Catalog  scenario.Catalog
	Recorder resolution.Recorder
	Policy   retry.Policy
	Rules    []string
}

func (d KeeperDeps) or(c chat.Collaborator) chat.Collaborator {
	if c != nil {
		return c
	}
	return d.Default
}

// NewKeeper wires the pipeline and the four agents into a coordinator.
func NewKeeper(d KeeperDeps, logger *slog.Logger) *turn.Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts := []resolution.Option{resolution.WithRetryPolicy(d.Policy)}
	if d.Recorder != nil {
		opts = append(opts, resolution.WithRecorder(d.Recorder))
	}
	pipeline := resolution.NewPipeline(d.or(d.Resolver), d.Catalog, logger, opts...)

	return turn.NewCoordinator(d.or(d.Classifier), d.or(d.Synthesizer), logger,
		agents.NewMemory(&agents.StateRetriever{Rules: d.Rules}, logger),
		agents.NewAction(pipeline, logger),
		agents.NewCharacter(d.or(d.Character), pipeline, logger).WithRetryPolicy(d.Policy),
		agents.NewDirector(d.or(d.Director), d.Catalog, logger).WithRetryPolicy(d.Policy),
	).WithRetryPolicy(d.Policy)
}

// DepsFromConfig builds one instrumented collaborator per call site. The
// narration call uses the main model; structured calls use the backend
// model.
func DepsFromConfig(cfg *config.Config, catalog scenario.Catalog, recorder resolution.Recorder, metrics *services.Metrics, logger *slog.Logger) (KeeperDeps, error) {
	narrator, err := services.NewCollaborator(cfg, cfg.ModelName, logger)
	if err != nil {
		return KeeperDeps{}, err
	}
	backend, err := services.NewCollaborator(cfg, cfg.BackendModel(), logger)
	if err != nil {
		return KeeperDeps{}, err
	}

	return KeeperDeps{
		Default:     backend,
		Classifier:  metrics.Instrument(backend, services.CallSiteClassifier),
		Resolver:    metrics.Instrument(backend, services.CallSiteResolver),
		Character:   metrics.Instrument(backend, services.CallSiteCharacter),
		Director:    metrics.Instrument(backend, services.CallSiteDirector),
		Synthesizer: metrics.Instrument(narrator, services.CallSiteSynthesizer),
		Catalog:     catalog,
		Recorder:    recorder,
		Policy:      cfg.RetryPolicy(logger),
	}, nil
}
