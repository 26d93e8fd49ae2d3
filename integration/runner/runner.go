package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/handlers"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/actor"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running keeper API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ScenarioOverride  string // If set, overrides the scenario for all test cases
	Sync              bool   // Run turns in the API process instead of through the queue
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 3 * time.Minute},
		Timeout:           90 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	if r.ScenarioOverride != "" {
		suite.Scenario = r.ScenarioOverride
	}

	gameStateID, err := r.createGameState(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to seed gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameState = gameStateID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.UserPrompt == ResetGameStatePrompt {
			stepResult, gameStateID = r.resetStep(ctx, gameStateID, suite, step)
			result.GameState = gameStateID
		} else {
			stepResult = r.runStep(ctx, gameStateID, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// createGameState starts a new session from the suite's scenario and cast
func (r *Runner) createGameState(ctx context.Context, suite TestSuite) (uuid.UUID, error) {
	createBody, err := json.Marshal(handlers.CreateGameStateRequest{
		Scenario: suite.Scenario,
		Player:   suite.Player,
		NPCs:     suite.NPCs,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/v1/gamestate", bytes.NewBuffer(createBody))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create gamestate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return uuid.Nil, fmt.Errorf("create gamestate returned %d: %s", resp.StatusCode, string(body))
	}

	var created state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode created gamestate: %w", err)
	}
	return created.ID, nil
}

// deleteGameState removes a session; a missing session is not an error
func (r *Runner) deleteGameState(ctx context.Context, gameStateID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.BaseURL+"/v1/gamestate/"+gameStateID.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute DELETE request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("DELETE request failed with status %d: %s", resp.StatusCode, string(body))
}

// resetStep discards the current session and starts a fresh one from the
// suite's seed. Returns the step result and the new session id.
func (r *Runner) resetStep(ctx context.Context, gameStateID uuid.UUID, suite TestSuite, step TestStep) (TestResult, uuid.UUID) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[GAMESTATE RESET]"}

	if err := r.deleteGameState(ctx, gameStateID); err != nil {
		result.Error = fmt.Errorf("failed to reset gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, gameStateID
	}
	newID, err := r.createGameState(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to reset gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, gameStateID
	}

	fresh, err := r.getGameState(ctx, newID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get reset gamestate for expectations: %w", err)
		result.Duration = time.Since(start)
		return result, newID
	}
	if err := checkExpectations(step.Expectations, fresh, fresh, "", nil); err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
	}

	result.Success = result.Error == nil
	result.Duration = time.Since(start)
	return result, newID
}

// runStep executes a single turn and checks expectations
// Will retry once on timeout errors without backoff
func (r *Runner) runStep(ctx context.Context, gameStateID uuid.UUID, step TestStep) TestResult {
	var result TestResult
	for attempt := 1; attempt <= 2; attempt++ {
		result = r.executeStep(ctx, gameStateID, step)
		if result.Success || result.Error == nil {
			return result
		}

		isTimeout := strings.Contains(result.Error.Error(), "timeout waiting for gamestate update")
		if !isTimeout {
			return result
		}
		if attempt == 1 {
			r.Logger("    Timeout detected, retrying step: %s", step.Name)
		}
	}
	return result
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, gameStateID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}
	fail := func(format string, err error) TestResult {
		result.Error = fmt.Errorf(format, err)
		result.Duration = time.Since(start)
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	preGameState, err := r.getGameState(stepCtx, gameStateID)
	if err != nil {
		return fail("failed to get gamestate before turn: %w", err)
	}

	var postGameState *state.GameState
	if r.Sync {
		tr, err := PostTurnSync(stepCtx, r.Client, r.BaseURL, gameStateID, step.UserPrompt)
		if err != nil {
			return fail("failed to post turn: %w", err)
		}
		result.RequestID = tr.RequestID
		result.Agents = tr.Agents
		result.ResponseText = tr.Message

		postGameState, err = r.getGameState(stepCtx, gameStateID)
		if err != nil {
			return fail("failed to get gamestate after turn: %w", err)
		}
	} else {
		requestID, err := PostTurnAsync(stepCtx, r.Client, r.BaseURL, gameStateID, step.UserPrompt)
		if err != nil {
			return fail("failed to queue turn: %w", err)
		}
		result.RequestID = requestID

		postGameState, err = PollForTurnCompletion(stepCtx, r.Client, r.BaseURL, preGameState)
		if err != nil {
			return fail("failed to poll for turn completion: %w", err)
		}
		result.ResponseText = postGameState.LastNarrative
	}

	var agents []string
	if r.Sync {
		agents = result.Agents
	}
	if err := checkExpectations(step.Expectations, preGameState, postGameState, result.ResponseText, agents); err != nil {
		return fail("expectation failed: %w", err)
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// getGameState retrieves the current gamestate
func (r *Runner) getGameState(ctx context.Context, gameStateID uuid.UUID) (*state.GameState, error) {
	return GetGameState(ctx, r.Client, r.BaseURL, gameStateID)
}

// checkExpectations validates the test expectations against the gamestate
// before and after the step. agents is nil when the turn ran asynchronously.
func checkExpectations(exp Expectations, preState, postState *state.GameState, responseText string, agents []string) error {
	if exp.Location != nil && postState.Location() != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, postState.Location())
	}

	if exp.ScenarioName != nil {
		name := ""
		if postState.CurrentScenario != nil {
			name = postState.CurrentScenario.Name
		}
		if name != *exp.ScenarioName {
			return fmt.Errorf("expected scenario %s, got %s", *exp.ScenarioName, name)
		}
	}

	if exp.Phase != nil && string(postState.Phase) != *exp.Phase {
		return fmt.Errorf("expected phase %s, got %s", *exp.Phase, postState.Phase)
	}

	if exp.ElapsedMinutes != nil {
		elapsed := postState.Clock.Sub(preState.Clock)
		if elapsed != *exp.ElapsedMinutes {
			return fmt.Errorf("expected clock to advance %d minutes, got %d (%s -> %s)", *exp.ElapsedMinutes, elapsed, preState.Clock, postState.Clock)
		}
	}

	if exp.ActionResults != nil {
		if n := len(postState.TemporaryInfo.ActionResults); n != *exp.ActionResults {
			return fmt.Errorf("expected %d action results, got %d", *exp.ActionResults, n)
		}
	}

	for _, clue := range exp.DiscoveredClues {
		if !slices.Contains(postState.DiscoveredClues, clue) {
			return fmt.Errorf("expected clue '%s' to be discovered. Actual clues: %v", clue, postState.DiscoveredClues)
		}
	}

	// Full inventory check (order independent)
	if len(exp.Inventory) > 0 {
		actual := make([]string, 0, len(postState.Player.Inventory))
		for _, item := range postState.Player.Inventory {
			actual = append(actual, item.Name)
		}
		for _, want := range exp.Inventory {
			if !slices.ContainsFunc(actual, func(got string) bool { return strings.EqualFold(got, want) }) {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", want, actual)
			}
		}
		if len(actual) != len(exp.Inventory) {
			return fmt.Errorf("expected inventory %v, got %v", exp.Inventory, actual)
		}
	}

	for npcName, expectedLocation := range exp.NPCLocations {
		idx := slices.IndexFunc(postState.NPCs, func(n actor.NPCProfile) bool { return strings.EqualFold(n.Name, npcName) })
		if idx < 0 {
			return fmt.Errorf("expected NPC %s to exist, but it doesn't", npcName)
		}
		if got := postState.NPCs[idx].CurrentLocation; got != expectedLocation {
			return fmt.Errorf("expected NPC %s to be at %s, got %s", npcName, expectedLocation, got)
		}
	}

	if len(exp.Agents) > 0 && agents != nil && !slices.Equal(agents, exp.Agents) {
		return fmt.Errorf("expected agents %v, got %v", exp.Agents, agents)
	}

	// Response content checks
	lowerResponse := strings.ToLower(responseText)
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	if exp.ResponseMinLength != nil && len(responseText) < *exp.ResponseMinLength {
		return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
	}
	if exp.ResponseMaxLength != nil && len(responseText) > *exp.ResponseMaxLength {
		return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
	}

	return nil
}
