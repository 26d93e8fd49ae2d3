package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
)

// Special user prompt values that trigger non-turn actions
const (
	ResetGameStatePrompt = "RESET_GAMESTATE"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string                 `json:"name"`
	Scenario string                 `json:"scenario,omitempty"` // Snapshot id or name
	Player   actor.CharacterProfile `json:"player"`
	NPCs     []actor.NPCProfile     `json:"npcs,omitempty"`
	Steps    []TestStep             `json:"steps,omitempty"` // Used for regular tests
	Cases    []string               `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes
// Use user_prompt: "RESET_GAMESTATE" to start over from a fresh session
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	UserPrompt   string       `json:"user_prompt"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// GameState properties - aligned with pkg/state/gamestate.go
	Location        *string           `json:"location,omitempty"`         // Current scenario location
	ScenarioName    *string           `json:"scenario_name,omitempty"`    // Current snapshot name
	Phase           *string           `json:"phase,omitempty"`            // Investigation phase
	ElapsedMinutes  *int              `json:"elapsed_minutes,omitempty"`  // Clock advance during this step
	ActionResults   *int              `json:"action_results,omitempty"`   // Scene action log size
	DiscoveredClues []string          `json:"discovered_clues,omitempty"` // Clues that must be known
	Inventory       []string          `json:"inventory,omitempty"`        // Player item names (order independent)
	NPCLocations    map[string]string `json:"npc_locations,omitempty"`
	Agents          []string          `json:"agents,omitempty"` // Agents that ran, in order (sync mode only)

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	RequestID    string
	Agents       []string
	IsReset      bool // True if this was a RESET_GAMESTATE step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	GameState uuid.UUID // ID of the last gamestate used for this test
}
