package graph

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Snapshot Serialization API
// =============================================================================

// MarshalSnapshot converts a raw snapshot to compact JSON bytes. The output
// is stable for equal inputs and is used for content hashing.
func MarshalSnapshot(r RawSnapshot) ([]byte, error) {
	return json.Marshal(r)
}

// Hash returns the hex SHA-256 of the snapshot's canonical JSON. Equal
// snapshots hash equally regardless of how they were read.
func Hash(r RawSnapshot) (string, error) {
	data, err := MarshalSnapshot(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// UnmarshalSnapshot decodes JSON bytes into a raw snapshot.
func UnmarshalSnapshot(data []byte) (RawSnapshot, error) {
	var r RawSnapshot
	if err := json.Unmarshal(data, &r); err != nil {
		return RawSnapshot{}, err
	}
	return r, nil
}

// WriteSnapshot writes a raw snapshot as indented JSON to w.
func WriteSnapshot(r RawSnapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a JSON snapshot from r. It does not normalize.
func ReadSnapshot(r io.Reader) (RawSnapshot, error) {
	var data RawSnapshot
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return RawSnapshot{}, fmt.Errorf("decode: %w", err)
	}
	return data, nil
}

// ReadSnapshotYAML decodes a YAML snapshot from r. It does not normalize.
func ReadSnapshotYAML(r io.Reader) (RawSnapshot, error) {
	var data RawSnapshot
	if err := yaml.NewDecoder(r).Decode(&data); err != nil {
		return RawSnapshot{}, fmt.Errorf("decode yaml: %w", err)
	}
	return data, nil
}

// ReadSnapshotFile reads a snapshot file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func ReadSnapshotFile(path string) (RawSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawSnapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadSnapshotYAML(bytes.NewReader(data))
	default:
		return ReadSnapshot(bytes.NewReader(data))
	}
}

// WriteSnapshotFile writes a raw snapshot as JSON to path.
func WriteSnapshotFile(r RawSnapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(r, f)
}
