package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ocisly14/CoC-AI-agent-sub002/pkg/scenario"
)

// ScenariosDir is the catalog directory under the data dir.
const ScenariosDir = "scenarios"

// ReadSnapshotFile reads one scenario file. A file holds either a single
// snapshot object or an array of snapshots.
func ReadSnapshotFile(path string) ([]scenario.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("scenario file %s is empty", path)
	}

	if data[0] == '[' {
		var snaps []scenario.Snapshot
		if err := json.Unmarshal(data, &snaps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario file %s: %w", path, err)
		}
		return snaps, nil
	}
	var s scenario.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenario file %s: %w", path, err)
	}
	return []scenario.Snapshot{s}, nil
}

// ScenarioFiles lists the *.json files under dir in lexical order.
func ScenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// LoadCatalog builds the scenario catalog from <dataDir>/scenarios.
// Snapshots without their own short-action cap get defaultCap when it is
// positive. Unreadable files are logged and skipped; invalid snapshot sets
// are logged but still loaded.
func LoadCatalog(dataDir string, defaultCap int, logger *slog.Logger) (*scenario.MemoryCatalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if dataDir == "" {
		dataDir = "./data"
	}
	dir := filepath.Join(dataDir, ScenariosDir)

	files, err := ScenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	var snaps []scenario.Snapshot
	for _, path := range files {
		s, err := ReadSnapshotFile(path)
		if err != nil {
			logger.Warn("Skipping scenario file", "path", path, "error", err)
			continue
		}
		snaps = append(snaps, s...)
	}
	if defaultCap > 0 {
		for i := range snaps {
			if snaps[i].ShortActionCap == 0 {
				snaps[i].ShortActionCap = defaultCap
			}
		}
	}
	for _, verr := range scenario.Validate(snaps) {
		logger.Warn("Scenario catalog problem", "error", verr.Error())
	}

	logger.Info("Scenario catalog loaded", "dir", dir, "files", len(files), "snapshots", len(snaps))
	return scenario.NewMemoryCatalog(snaps...), nil
}
