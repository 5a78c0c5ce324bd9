package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/anthology/internal/engine"
)

// SnapshotVersion is written into every snapshot header.
const SnapshotVersion = 1

// SnapshotHeader is the first line of a snapshot file, readable without
// decoding the body.
type SnapshotHeader struct {
	Version int    `json:"version"`
	Run     string `json:"run,omitempty"`
	Tick    uint64 `json:"tick"`
	Seed    int64  `json:"seed"`
	Agents  int    `json:"agents"`
}

// SnapshotFile is the decoded contents of a snapshot file.
type SnapshotFile struct {
	Header   SnapshotHeader  `json:"header"`
	Snapshot engine.Snapshot `json:"snapshot"`
	Events   []engine.Event  `json:"events,omitempty"`
}

// WriteSnapshot stores sf as a zstd-compressed stream of a JSON header line
// followed by the JSON body. The header is filled from the snapshot.
func WriteSnapshot(path string, sf SnapshotFile) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	sf.Header.Version = SnapshotVersion
	sf.Header.Tick = sf.Snapshot.Tick
	sf.Header.Seed = sf.Snapshot.Seed
	sf.Header.Agents = len(sf.Snapshot.Agents)

	hb, _ := json.Marshal(sf.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&sf); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot decodes a file written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotFile, error) {
	var sf SnapshotFile
	f, err := os.Open(path)
	if err != nil {
		return sf, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return sf, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return sf, fmt.Errorf("read header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&sf); err != nil {
		return sf, fmt.Errorf("json decode: %w", err)
	}
	if sf.Header.Version != SnapshotVersion {
		return sf, fmt.Errorf("snapshot version %d, want %d", sf.Header.Version, SnapshotVersion)
	}
	return sf, nil
}

// ReadSnapshotHeader decodes only the header line.
func ReadSnapshotHeader(path string) (SnapshotHeader, error) {
	var h SnapshotHeader
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

// CaptureSnapshot builds a snapshot file from the live simulation,
// including the retained event log.
func CaptureSnapshot(sim *engine.Simulation, run string) SnapshotFile {
	return SnapshotFile{
		Header:   SnapshotHeader{Run: run},
		Snapshot: sim.Snapshot(),
		Events:   sim.EventsAfter(0),
	}
}
