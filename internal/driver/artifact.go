package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"whittle/internal/tree"
)

// Bump when the artifact layout changes.
const artifactSchemaVersion uint16 = 1

// artifactPayload is the msgpack snapshot written per finding. Decision logs
// are deliberately absent: findings persist, logs do not.
type artifactPayload struct {
	Schema    uint16
	ID        string
	Class     string
	Message   string
	Source    string
	Dump      string
	Iteration uint32
	CreatedAt time.Time
}

// writeArtifact serializes a finding snapshot into dir as <id>.bin.
func writeArtifact(dir string, f *Finding) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	iteration, err := safecast.Conv[uint32](f.Iteration)
	if err != nil {
		return fmt.Errorf("iteration overflow: %w", err)
	}
	payload := artifactPayload{
		Schema:    artifactSchemaVersion,
		ID:        f.ID.String(),
		Class:     f.Class.String(),
		Message:   f.Message,
		Source:    f.Source,
		Dump:      tree.Dump(f.Node),
		Iteration: iteration,
		CreatedAt: time.Now().UTC(),
	}
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, f.ID.String()+".bin")
	return os.WriteFile(path, data, 0o640)
}

// readArtifact loads a finding snapshot, used by tests and tooling.
func readArtifact(path string) (artifactPayload, error) {
	var payload artifactPayload
	// #nosec G304 -- path is produced by writeArtifact under a configured dir
	data, err := os.ReadFile(path)
	if err != nil {
		return payload, err
	}
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return payload, err
	}
	if payload.Schema != artifactSchemaVersion {
		return payload, fmt.Errorf("artifact schema %d, want %d", payload.Schema, artifactSchemaVersion)
	}
	return payload, nil
}
