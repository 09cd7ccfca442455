// Package atomicfile writes files durably and atomically: callers never
// observe a partially written MediaRecord, RegistryIndex, or SessionData
// file, even if the process is killed mid-write.
//
// Writes go through a pending temp file in the same directory as the
// destination, fsynced and then renamed into place, following the pattern
// used for durable playlist/EPG writes elsewhere in this ecosystem.
package atomicfile

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
)

// Write atomically replaces the file at path with data, creating parent
// directories as needed. perm is applied to the new file.
func Write(path string, data []byte, perm os.FileMode) error {
	t, err := renameio.NewPendingFile(path, renameio.WithPermissions(perm))
	if err != nil {
		return fmt.Errorf("create pending file for %s: %w", path, err)
	}
	defer func() {
		_ = t.Cleanup()
	}()

	if _, err := t.Write(data); err != nil {
		return fmt.Errorf("write pending file for %s: %w", path, err)
	}

	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}

	return nil
}

// WriteJSON marshals v and atomically writes it to path with 0o644
// permissions. Used for MediaRecords, the registry index, and session
// snapshots — anywhere a reader must never see a half-written document.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json for %s: %w", path, err)
	}
	return Write(path, data, 0o644)
}

// ReadJSON reads and unmarshals the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
