package state

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

// DeltaWorker applies the updates produced by one resolved action to the
// game state. Each Apply* method handles one family of updates and returns
// human-readable notes for the action log.
type DeltaWorker struct {
	mgr     *Manager
	catalog scenario.Catalog
	logger  *slog.Logger

	actor         string // acting character name
	isNPC         bool
	targetsPlayer bool
}

// NewDeltaWorker creates a worker for an action taken by actorName.
func NewDeltaWorker(mgr *Manager, catalog scenario.Catalog, actorName string, isNPC bool, logger *slog.Logger) *DeltaWorker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DeltaWorker{
		mgr:     mgr,
		catalog: catalog,
		logger:  logger,
		actor:   actorName,
		isNPC:   isNPC,
	}
}

// WithPlayerTarget marks the action as directed at the player.
// Returns the DeltaWorker for method chaining
func (dw *DeltaWorker) WithPlayerTarget(targets bool) *DeltaWorker {
	dw.targetsPlayer = targets
	return dw
}

func (dw *DeltaWorker) gs() *GameState { return dw.mgr.State() }

// resolve finds the character an update refers to, defaulting to the actor.
func (dw *DeltaWorker) resolve(name string) (CharacterRef, bool) {
	if strings.TrimSpace(name) == "" {
		name = dw.actor
	}
	return dw.gs().FindCharacter(name)
}

// ApplyState applies status deltas and inventory operations.
func (dw *DeltaWorker) ApplyState(updates []Update) []string {
	var notes []string
	for _, u := range updates {
		switch v := u.(type) {
		case StatusDelta:
			notes = append(notes, dw.applyStatus(v)...)
		case InventoryOp:
			notes = append(notes, dw.applyInventory(v)...)
		}
	}
	return notes
}

func (dw *DeltaWorker) applyStatus(d StatusDelta) []string {
	ref, ok := dw.resolve(d.Character)
	if !ok {
		dw.logger.Warn("Status delta for unknown character",
			"game_state_id", dw.gs().ID.String(),
			"character", d.Character)
		return []string{fmt.Sprintf("ignored status change for unknown character %q", d.Character)}
	}

	var clamped, missing []string
	if ref.NPC != nil {
		clamped, missing = ref.NPC.ApplyDelta(d.Delta)
	} else {
		clamped = ref.Profile.ApplyDelta(d.Delta)
	}
	if len(clamped) > 0 {
		dw.logger.Debug("Clamped status fields",
			"character", ref.Name(),
			"fields", clamped)
	}
	if len(missing) > 0 {
		dw.logger.Warn("Unknown clues in status delta",
			"character", ref.Name(),
			"clues", missing)
	}

	// Revealed clues join the discovered set.
	var notes []string
	for _, id := range d.RevealClues {
		if ref.NPC == nil {
			continue
		}
		for _, c := range ref.NPC.Clues {
			if c.Revealed && (strings.EqualFold(c.ID, id) || strings.EqualFold(c.Text, id)) {
				if dw.mgr.AddDiscoveredClue(c.Text) {
					notes = append(notes, fmt.Sprintf("%s revealed: %s", ref.Name(), c.Text))
				}
			}
		}
	}
	return notes
}

func (dw *DeltaWorker) applyInventory(op InventoryOp) []string {
	ref, ok := dw.resolve(op.Character)
	if !ok {
		dw.logger.Warn("Inventory op for unknown character",
			"game_state_id", dw.gs().ID.String(),
			"character", op.Character)
		return []string{fmt.Sprintf("ignored inventory change for unknown character %q", op.Character)}
	}

	p := ref.Profile
	switch op.Op {
	case InventoryAdd:
		for _, it := range op.Items {
			p.AddItem(it)
		}
	case InventoryRemove:
		for _, it := range op.Items {
			if !p.RemoveItem(it.Name, it.Quantity) {
				dw.logger.Warn("Could not remove item",
					"character", p.Name,
					"item", it.Name)
			}
		}
	case InventoryReplace:
		p.ReplaceInventory(op.Items)
	}
	return nil
}

// ApplyScene handles scene-change requests. An NPC is moved directly when
// the target resolves in the catalog; a player request is only recorded as
// pending. The active scenario is never swapped here.
func (dw *DeltaWorker) ApplyScene(updates []Update) []string {
	var notes []string
	for _, u := range updates {
		req, ok := u.(SceneChangeRequest)
		if !ok {
			continue
		}

		if !dw.isNPC {
			dw.mgr.SetPendingSceneChange(SceneChange{
				Target:      req.Target,
				Reason:      ReasonPlayerRequest,
				RequestedBy: dw.actor,
			})
			notes = append(notes, fmt.Sprintf("%s wants to go to %s", dw.actor, req.Target))
			continue
		}

		snap, found := dw.lookup(req.Target)
		if !found {
			dw.logger.Warn("NPC scene change to unknown scene",
				"game_state_id", dw.gs().ID.String(),
				"npc", dw.actor,
				"target", req.Target)
			continue
		}
		npc, found := dw.gs().FindNPC(dw.actor)
		if !found {
			dw.logger.Warn("Scene change for unknown NPC", "npc", dw.actor)
			continue
		}
		if npc.CurrentLocation != snap.Name {
			dw.logger.Info("NPC moved",
				"npc", npc.Name,
				"from", npc.CurrentLocation,
				"to", snap.Name)
		}
		npc.CurrentLocation = snap.Name
		notes = append(notes, fmt.Sprintf("%s moved to %s", npc.Name, snap.Name))

		if req.WithPlayer || dw.targetsPlayer {
			dw.mgr.SetPendingSceneChange(SceneChange{
				Target:      snap.Name,
				Reason:      ReasonMovedByNPC,
				RequestedBy: npc.Name,
			})
			notes = append(notes, fmt.Sprintf("%s takes %s to %s", npc.Name, dw.gs().Player.Name, snap.Name))
		}
	}
	return notes
}

func (dw *DeltaWorker) lookup(name string) (*scenario.Snapshot, bool) {
	if dw.catalog == nil {
		return nil, false
	}
	return dw.catalog.Lookup(name)
}

// ApplyScenario merges scenario deltas into the current snapshot and
// returns the permanent changes for the result log.
func (dw *DeltaWorker) ApplyScenario(updates []Update) []string {
	snap := dw.gs().CurrentScenario
	var changes []string
	for _, u := range updates {
		d, ok := u.(ScenarioDelta)
		if !ok {
			continue
		}
		if snap == nil {
			dw.logger.Warn("Scenario delta without a current scenario",
				"game_state_id", dw.gs().ID.String())
			return changes
		}
		if len(d.Clues) > 0 {
			dw.logger.Debug("Ignoring clues in scenario delta", "scenario_id", snap.ID)
		}
		for _, c := range d.Conditions {
			snap.MergeCondition(c)
		}
		for _, ev := range d.Events {
			snap.AddEvent(ev)
		}
		for _, e := range d.Exits {
			snap.MergeExit(e)
		}
		for _, pc := range d.PermanentChanges {
			pc = strings.TrimSpace(pc)
			if pc == "" {
				continue
			}
			snap.AddPermanentChange(pc)
			changes = append(changes, pc)
		}
	}
	return changes
}

// LogAction appends an entry to the acting character's log and, when it
// resolves, to the target's.
func (dw *DeltaWorker) LogAction(target string, entry actor.ActionLogEntry) {
	if ref, ok := dw.resolve(dw.actor); ok {
		ref.Profile.RecordAction(entry)
	}
	if strings.TrimSpace(target) == "" {
		return
	}
	ref, ok := dw.gs().FindCharacter(target)
	if !ok {
		dw.logger.Warn("Action target not found",
			"game_state_id", dw.gs().ID.String(),
			"target", target)
		return
	}
	if ref.Name() == dw.actor {
		return
	}
	ref.Profile.RecordAction(entry)
}
