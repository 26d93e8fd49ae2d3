package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/failure"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

// UpdateKind tags a state update variant on the wire.
type UpdateKind string

const (
	KindStatusDelta   UpdateKind = "status_delta"
	KindInventory     UpdateKind = "inventory"
	KindScenarioDelta UpdateKind = "scenario_delta"
	KindSceneChange   UpdateKind = "scene_change"
)

// Update is one of StatusDelta, InventoryOp, ScenarioDelta or
// SceneChangeRequest. The set is closed.
type Update interface {
	Kind() UpdateKind
	Validate() error
	isUpdate()
}

// StatusDelta is a differential change to one character.
type StatusDelta struct {
	Character string `json:"character,omitempty"` // empty means the acting character
	actor.Delta
}

const (
	InventoryAdd     = "add"
	InventoryRemove  = "remove"
	InventoryReplace = "replace"
)

// InventoryOp adds, removes or replaces items for one character.
type InventoryOp struct {
	Character string       `json:"character,omitempty"` // empty means the acting character
	Op        string       `json:"op"`
	Items     []actor.Item `json:"items"`
}

// ScenarioDelta changes the current scenario snapshot. Clues are accepted
// on the wire and ignored; they belong to the narrative layer.
type ScenarioDelta struct {
	Conditions       []scenario.Condition `json:"conditions,omitempty"`
	Events           []string             `json:"events,omitempty"`
	Exits            []scenario.Exit      `json:"exits,omitempty"`
	PermanentChanges []string             `json:"permanent_changes,omitempty"`
	Clues            json.RawMessage      `json:"clues,omitempty"`
}

// SceneChangeRequest asks to move the acting character to another scene.
type SceneChangeRequest struct {
	Target     string `json:"target"`
	Reason     string `json:"reason,omitempty"`
	WithPlayer bool   `json:"with_player,omitempty"` // an NPC taking the player along
}

func (StatusDelta) Kind() UpdateKind        { return KindStatusDelta }
func (InventoryOp) Kind() UpdateKind        { return KindInventory }
func (ScenarioDelta) Kind() UpdateKind      { return KindScenarioDelta }
func (SceneChangeRequest) Kind() UpdateKind { return KindSceneChange }

func (StatusDelta) isUpdate()        {}
func (InventoryOp) isUpdate()        {}
func (ScenarioDelta) isUpdate()      {}
func (SceneChangeRequest) isUpdate() {}

func (u StatusDelta) Validate() error {
	var unknown []string
	for k := range u.Characteristics {
		if !actor.IsCharacteristic(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return fmt.Errorf("unknown characteristics: %s", strings.Join(unknown, ", "))
	}
	if u.Delta.IsEmpty() {
		return fmt.Errorf("status delta changes nothing")
	}
	return nil
}

func (u InventoryOp) Validate() error {
	switch u.Op {
	case InventoryAdd, InventoryRemove:
		if len(u.Items) == 0 {
			return fmt.Errorf("inventory %s requires items", u.Op)
		}
	case InventoryReplace:
	default:
		return fmt.Errorf("unknown inventory op %q", u.Op)
	}
	for _, it := range u.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("inventory item without name")
		}
		if it.Quantity < 0 {
			return fmt.Errorf("negative quantity for %q", it.Name)
		}
	}
	return nil
}

func (u ScenarioDelta) Validate() error {
	for _, c := range u.Conditions {
		if strings.TrimSpace(c.Type) == "" {
			return fmt.Errorf("condition without type")
		}
	}
	for _, e := range u.Exits {
		if strings.TrimSpace(e.Direction) == "" {
			return fmt.Errorf("exit without direction")
		}
	}
	return nil
}

func (u SceneChangeRequest) Validate() error {
	if strings.TrimSpace(u.Target) == "" {
		return fmt.Errorf("scene change without target")
	}
	return nil
}

// DecodeUpdate decodes a single tagged update. Unknown kinds, unknown
// fields and invalid contents are rejected with a MalformedResponse error.
func DecodeUpdate(raw []byte) (Update, error) {
	var head struct {
		Kind UpdateKind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, failure.Malformed("decode update", err)
	}

	var (
		u   Update
		err error
	)
	switch head.Kind {
	case KindStatusDelta:
		var v struct {
			Kind UpdateKind `json:"kind"`
			StatusDelta
		}
		err = strictUnmarshal(raw, &v)
		u = v.StatusDelta
	case KindInventory:
		var v struct {
			Kind UpdateKind `json:"kind"`
			InventoryOp
		}
		err = strictUnmarshal(raw, &v)
		u = v.InventoryOp
	case KindScenarioDelta:
		var v struct {
			Kind UpdateKind `json:"kind"`
			ScenarioDelta
		}
		err = strictUnmarshal(raw, &v)
		u = v.ScenarioDelta
	case KindSceneChange:
		var v struct {
			Kind UpdateKind `json:"kind"`
			SceneChangeRequest
		}
		err = strictUnmarshal(raw, &v)
		u = v.SceneChangeRequest
	case "":
		return nil, failure.Malformedf("decode update", "missing kind")
	default:
		return nil, failure.Malformedf("decode update", "unknown kind %q", head.Kind)
	}
	if err != nil {
		return nil, failure.Malformed("decode "+string(head.Kind), err)
	}
	if err := u.Validate(); err != nil {
		return nil, failure.Malformed("validate "+string(head.Kind), err)
	}
	return u, nil
}

// DecodeUpdates decodes each raw update independently. Rejected entries are
// described in rejected and do not stop the others.
func DecodeUpdates(raws []json.RawMessage) (updates []Update, rejected []string) {
	for i, raw := range raws {
		u, err := DecodeUpdate(raw)
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("update %d: %v", i, err))
			continue
		}
		updates = append(updates, u)
	}
	return updates, rejected
}

// EncodeUpdate marshals u with its kind tag.
func EncodeUpdate(u Update) ([]byte, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(u.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

func strictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after update")
	}
	return nil
}
