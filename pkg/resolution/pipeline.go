// Package resolution resolves one character's attempted action into state
// changes and a logged ActionResult.
package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/chat"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/progression"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/prompts"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/retry"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/textfilter"
)

// Stage is a step of the resolution state machine.
type Stage string

const (
	StagePreRoll       Stage = "PRE_ROLL"
	StageBuildContext  Stage = "BUILD_CONTEXT"
	StageResolve       Stage = "RESOLVE"
	StageApplyState    Stage = "APPLY_STATE"
	StageApplyScene    Stage = "APPLY_SCENE"
	StageApplyScenario Stage = "APPLY_SCENARIO"
	StageAdvanceClock  Stage = "ADVANCE_CLOCK"
	StageLog           Stage = "LOG"
	StageError         Stage = "ERROR"
)

// FailedResultText is logged when the resolver could not produce an outcome.
const FailedResultText = "The attempt stalls; nothing comes of it yet."

// Request is one attempted action.
type Request struct {
	Character string // empty means the player
	Action    string
	IsNPC     bool
	Target    string       // optional
	Response  *NPCResponse // set when resolving an NPC reaction
}

// Recorder receives every logged ActionResult, e.g. for a durable archive.
type Recorder interface {
	Record(ctx context.Context, gameStateID uuid.UUID, r state.ActionResult) error
}

// Pipeline resolves actions against a GameState.
type Pipeline struct {
	resolver chat.Collaborator
	catalog  scenario.Catalog
	monitor  *progression.Monitor
	roller   *Roller
	policy   retry.Policy
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRoller replaces the dice roller, typically with a fixed seed.
func WithRoller(r *Roller) Option { return func(p *Pipeline) { p.roller = r } }

// WithRetryPolicy sets the policy for resolver calls.
func WithRetryPolicy(policy retry.Policy) Option { return func(p *Pipeline) { p.policy = policy } }

// WithRecorder sets a sink for logged results.
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithMonitor replaces the progression monitor.
func WithMonitor(m *progression.Monitor) Option { return func(p *Pipeline) { p.monitor = m } }

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// NewPipeline creates a pipeline that asks resolver for outcomes and
// resolves scene names through catalog.
func NewPipeline(resolver chat.Collaborator, catalog scenario.Catalog, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pipeline{
		resolver: resolver,
		catalog:  catalog,
		policy:   retry.DefaultPolicy(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.roller == nil {
		p.roller = NewRoller(time.Now().UnixNano())
	}
	if p.monitor == nil {
		p.monitor = progression.NewMonitor(logger)
	}
	if p.policy.Logger == nil {
		p.policy.Logger = logger
	}
	return p
}

// resolverPayload is the structured answer expected from the resolver.
type resolverPayload struct {
	Result          string            `json:"result"`
	DiceRolls       []string          `json:"diceRolls"`
	TimeConsumption string            `json:"timeConsumption"`
	Updates         []json.RawMessage `json:"updates"`
}

// parseResolverPayload extracts and decodes the first structured object.
func parseResolverPayload(raw string) (*resolverPayload, error) {
	obj, ok := textfilter.ExtractObject(raw)
	if !ok {
		return nil, failure.Malformedf("resolve", "no structured payload in response")
	}
	var p resolverPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return nil, failure.Malformed("resolve", err)
	}
	if strings.TrimSpace(p.Result) == "" {
		return nil, failure.Malformedf("resolve", "payload has no result")
	}
	return &p, nil
}

// resolution carries one action through the stages.
type resolution struct {
	p     *Pipeline
	gs    *state.GameState
	mgr   *state.Manager
	req   Request
	stage Stage

	actorName     string
	targetsPlayer bool
	startTime     time.Time
	basket        Basket
	checks        []SkillCheck
	messages      []chat.ChatMessage
	payload       *resolverPayload
	updates       []state.Update
	result        state.ActionResult
	worker        *state.DeltaWorker
}

func (r *resolution) enter(s Stage) {
	r.stage = s
	r.p.logger.Debug("Resolution stage",
		"game_state_id", r.gs.ID.String(),
		"character", r.actorName,
		"stage", string(s))
}

// ResolveAction resolves req against gs, mutating gs in place. A resolver
// failure still yields a logged ActionResult carrying the failure; the only
// error is a nil GameState. Failed actions count toward the progression
// stall counters like any other action.
func (p *Pipeline) ResolveAction(ctx context.Context, gs *state.GameState, req Request) (*state.ActionResult, error) {
	if gs == nil {
		return nil, fmt.Errorf("gamestate cannot be nil")
	}
	r := &resolution{
		p:         p,
		gs:        gs,
		mgr:       state.NewManager(gs, p.logger),
		req:       req,
		startTime: p.now(),
	}

	p.monitor.Baseline(gs)
	res := r.run(ctx)
	if p.monitor.ShouldTriggerProgression(gs) {
		gs.TemporaryInfo.ProgressionPending = true
	}
	return res, nil
}

func (r *resolution) run(ctx context.Context) *state.ActionResult {
	p, gs, req := r.p, r.gs, r.req
	ref, ok := r.resolveActor()
	if !ok {
		err := failure.UnknownReference("resolve", "unknown acting character %q", req.Character)
		p.logger.Warn("Unknown acting character",
			"game_state_id", gs.ID.String(),
			"character", req.Character,
			"is_npc", req.IsNPC)
		r.actorName = req.Character
		return r.fail(ctx, err)
	}
	r.actorName = ref.Name()
	if req.Target != "" {
		if t, ok := gs.FindCharacter(req.Target); ok && t.IsPlayer() {
			r.targetsPlayer = true
		}
	}
	r.worker = state.NewDeltaWorker(r.mgr, p.catalog, r.actorName, req.IsNPC, p.logger).
		WithPlayerTarget(r.targetsPlayer)

	r.preRoll()
	if err := r.buildContext(); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.resolve(ctx); err != nil {
		return r.fail(ctx, err)
	}
	r.applyState()
	r.applyScene()
	r.applyScenario()
	r.advanceClock()
	r.log(ctx)
	return &r.result
}

// resolveActor finds the acting character. An NPC request must name an
// NPC; a player request with no name is the player.
func (r *resolution) resolveActor() (state.CharacterRef, bool) {
	if r.req.IsNPC {
		npc, ok := r.gs.FindNPC(r.req.Character)
		if !ok || strings.TrimSpace(r.req.Character) == "" {
			return state.CharacterRef{}, false
		}
		return state.CharacterRef{Profile: &npc.CharacterProfile, NPC: npc}, true
	}
	if strings.TrimSpace(r.req.Character) == "" {
		return state.CharacterRef{Profile: &r.gs.Player}, true
	}
	ref, ok := r.gs.FindCharacter(r.req.Character)
	if !ok || !ref.IsPlayer() {
		return state.CharacterRef{}, false
	}
	return ref, true
}

func (r *resolution) preRoll() {
	r.enter(StagePreRoll)
	r.basket = r.p.roller.Basket()
	if ref, ok := r.actorRef(); ok {
		r.checks = r.p.mentionedChecks(ref.Profile, r.req.Action)
	}
}

// mentionedChecks rolls a percentile check for every skill of profile the
// action names, in skill name order.
func (p *Pipeline) mentionedChecks(profile *actor.CharacterProfile, action string) []SkillCheck {
	var skills []string
	for _, name := range slices.Sorted(maps.Keys(profile.Skills)) {
		if textfilter.Mentions(action, name) {
			skills = append(skills, name)
		}
	}
	if len(skills) == 0 {
		return nil
	}
	sheet, err := profile.Sheet()
	if err != nil {
		p.logger.Warn("Failed to build character sheet", "character", profile.Name, "error", err)
		return nil
	}
	checks := make([]SkillCheck, 0, len(skills))
	for _, name := range skills {
		c, err := p.roller.Check(sheet, name, 0)
		if err != nil {
			p.logger.Warn("Failed to roll skill check", "character", profile.Name, "skill", name, "error", err)
			continue
		}
		checks = append(checks, c)
	}
	return checks
}

func checkLines(checks []SkillCheck) []string {
	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		lines = append(lines, c.Line())
	}
	return lines
}

func (r *resolution) buildContext() error {
	r.enter(StageBuildContext)
	gs := r.gs

	rc := prompts.ResolverContext{
		Actor:       r.actorName,
		IsNPC:       r.req.IsNPC,
		Action:      r.req.Action,
		Scenario:    gs.CurrentScenario,
		ActiveRules: gs.TemporaryInfo.ActiveRules,
		Dice:        r.basket.Lines(),
		Checks:      checkLines(r.checks),
		GameTime:    gs.Clock.String(),
	}
	if ref, ok := r.actorRef(); ok {
		rc.ActorSheet = sheetFor(ref)
	}
	if r.req.Target != "" {
		if t, ok := gs.FindCharacter(r.req.Target); ok {
			rc.TargetSheet = sheetFor(t)
		}
	}
	if r.p.catalog != nil {
		rc.ReachableScenes = scenario.Names(r.p.catalog)
	} else if gs.CurrentScenario != nil {
		rc.ReachableScenes = gs.CurrentScenario.Destinations()
	}
	if !r.req.IsNPC {
		rc.Narrative = gs.LastNarrative
	}
	if resp := r.req.Response; resp != nil {
		rc.ResponseType = resp.ResponseType
		rc.ResponseNote = resp.Description
	}

	msgs, err := prompts.Resolver(rc)
	if err != nil {
		return fmt.Errorf("failed to build resolver prompt: %w", err)
	}
	r.messages = msgs
	return nil
}

func (r *resolution) actorRef() (state.CharacterRef, bool) {
	if r.req.IsNPC {
		if npc, ok := r.gs.FindNPC(r.actorName); ok {
			return state.CharacterRef{Profile: &npc.CharacterProfile, NPC: npc}, true
		}
		return state.CharacterRef{}, false
	}
	return state.CharacterRef{Profile: &r.gs.Player}, true
}

func sheetFor(ref state.CharacterRef) string {
	s := ref.Profile.Summary()
	if n := ref.NPC; n != nil {
		if n.Occupation != "" {
			s += " Occupation: " + n.Occupation + "."
		}
		if n.Personality != "" {
			s += " Personality: " + n.Personality + "."
		}
		if len(n.Goals) > 0 {
			s += " Goals: " + strings.Join(n.Goals, "; ") + "."
		}
	}
	return s
}

func (r *resolution) resolve(ctx context.Context) error {
	r.enter(StageResolve)
	if r.p.resolver == nil {
		return failure.Transport("resolve", fmt.Errorf("no resolver configured"))
	}
	payload, err := retry.Do(ctx, r.p.policy, "resolve", func(ctx context.Context) (*resolverPayload, error) {
		text, err := r.p.resolver.Complete(ctx, r.messages)
		if err != nil {
			if failure.KindOf(err) == failure.KindUnknown {
				err = failure.Transport("resolve", err)
			}
			return nil, err
		}
		return parseResolverPayload(text)
	})
	if err != nil {
		return err
	}
	r.payload = payload

	updates, rejected := state.DecodeUpdates(payload.Updates)
	for _, msg := range rejected {
		r.p.logger.Warn("Rejected resolver update",
			"game_state_id", r.gs.ID.String(),
			"character", r.actorName,
			"reason", msg)
	}
	r.updates = updates

	tc := state.ParseTimeConsumption(payload.TimeConsumption)
	r.result = state.ActionResult{
		Timestamp:       r.startTime,
		GameTime:        r.gs.Clock,
		Location:        r.gs.Location(),
		Character:       r.actorName,
		IsNPC:           r.req.IsNPC,
		Result:          strings.TrimSpace(payload.Result),
		DiceRolls:       payload.DiceRolls,
		TimeConsumption: tc,
		ElapsedMinutes:  tc.Minutes(),
		Rejected:        rejected,
	}
	return nil
}

func (r *resolution) applyState() {
	r.enter(StageApplyState)
	for _, note := range r.worker.ApplyState(r.updates) {
		r.p.logger.Debug("State note", "character", r.actorName, "note", note)
	}
}

func (r *resolution) applyScene() {
	r.enter(StageApplyScene)
	r.result.ScenarioChanges = append(r.result.ScenarioChanges, r.worker.ApplyScene(r.updates)...)
}

func (r *resolution) applyScenario() {
	r.enter(StageApplyScenario)
	r.result.ScenarioChanges = append(r.result.ScenarioChanges, r.worker.ApplyScenario(r.updates)...)
}

// advanceClock moves the global clock for player actions only; NPC time is
// logged but never advances the clock.
func (r *resolution) advanceClock() {
	r.enter(StageAdvanceClock)
	res := &r.result
	r.mgr.RecordTimeConsumption(r.actorName, res.TimeConsumption, res.ElapsedMinutes)
	if !r.req.IsNPC {
		r.mgr.AdvanceClock(res.ElapsedMinutes)
	}
}

func (r *resolution) log(ctx context.Context) {
	r.enter(StageLog)
	r.mgr.AddActionResult(r.result)
	if r.worker != nil {
		r.worker.LogAction(r.req.Target, actor.ActionLogEntry{
			Timestamp: r.result.Timestamp,
			GameTime:  r.result.GameTime,
			Location:  r.result.Location,
			Summary:   fmt.Sprintf("%s: %s", r.req.Action, r.result.Result),
		})
	}
	if r.p.recorder != nil {
		if err := r.p.recorder.Record(ctx, r.gs.ID, r.result); err != nil {
			r.p.logger.Error("Failed to archive action result",
				"game_state_id", r.gs.ID.String(),
				"error", err)
		}
	}
}

// fail substitutes a typed failure result with zero elapsed time and logs
// it like any other result.
func (r *resolution) fail(ctx context.Context, err error) *state.ActionResult {
	from := r.stage
	r.enter(StageError)
	r.p.logger.Warn("Action resolution failed",
		"game_state_id", r.gs.ID.String(),
		"character", r.actorName,
		"stage", string(from),
		"kind", string(failure.KindOf(err)),
		"error", err)

	r.result = state.ActionResult{
		Timestamp:       r.startTime,
		GameTime:        r.gs.Clock,
		Location:        r.gs.Location(),
		Character:       r.actorName,
		IsNPC:           r.req.IsNPC,
		Result:          FailedResultText,
		TimeConsumption: state.TimeInstant,
		ElapsedMinutes:  0,
		Failure:         failure.OutcomeOf(err),
	}
	if from != "" {
		r.result.DiceRolls = append(r.basket.Lines(), checkLines(r.checks)...)
	}
	r.log(ctx)
	return &r.result
}
