package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Ocisly14/CoC-AI-agent-sub002/internal/storage"
	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json|scenario_dir>...\n", os.Args[0])
		os.Exit(1)
	}

	validator := &ScenarioValidator{}
	var snaps []scenario.Snapshot
	failed := false

	for _, arg := range os.Args[1:] {
		files, err := expand(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, f := range files {
			loaded, err := validator.validateFile(f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
				failed = true
				continue
			}
			snaps = append(snaps, loaded...)
		}
	}

	// Cross-file checks: ids, names and exit destinations span the catalog.
	if errs := scenario.Validate(snaps); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Catalog validation failed:\n")
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		failed = true
	}

	if failed {
		os.Exit(1)
	}
	fmt.Printf("%d snapshot(s) valid!\n", len(snaps))
}

func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return storage.ScenarioFiles(path)
}

type ScenarioValidator struct {
	errors []string
}

func (v *ScenarioValidator) validateFile(filename string) ([]scenario.Snapshot, error) {
	fmt.Printf("Validating %s...\n", filename)

	// Validate filename format
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return nil, fmt.Errorf("scenario file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidScenarioFilename(nameWithoutExt) {
		return nil, fmt.Errorf("scenario filename '%s' must be lowercase snake_case (e.g., old_house.json, not old-house.json or OldHouse.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return nil, fmt.Errorf("file %s contains invalid JSON", filename)
	}

	// Strict decode first so typos in field names are reported
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '[' {
		data = append(append([]byte{'['}, data...), ']')
	}
	var snaps []scenario.Snapshot
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&snaps); err != nil {
		return nil, fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	for i := range snaps {
		v.validateSnapshot(&snaps[i])
	}

	if len(v.errors) > 0 {
		return nil, fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return snaps, nil
}

func (v *ScenarioValidator) validateSnapshot(s *scenario.Snapshot) {
	v.validateIDFormat("snapshot id", s.ID)
	v.validateIDFormat("scenario_id", s.ScenarioID)

	if strings.TrimSpace(s.Location) == "" {
		v.addError(fmt.Sprintf("snapshot %s has no location", s.ID))
	}
	if strings.TrimSpace(s.Description) == "" {
		v.addError(fmt.Sprintf("snapshot %s has no description", s.ID))
	}

	for _, c := range s.Conditions {
		if strings.TrimSpace(c.Type) == "" {
			v.addError(fmt.Sprintf("snapshot %s has a condition without type", s.ID))
		}
	}
	for _, e := range s.Exits {
		if strings.TrimSpace(e.Destination) == "" && !e.Blocked {
			v.addError(fmt.Sprintf("snapshot %s exit '%s' is open but has no destination", s.ID, e.Direction))
		}
	}
}

func (v *ScenarioValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ScenarioValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidScenarioFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenarios
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
