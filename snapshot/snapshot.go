// SPDX-License-Identifier: MIT

// Package snapshot stores sampler checkpoints as zstd-compressed gob
// streams.
//
// A file starts with one JSON header line naming the format version and
// the payload kind, followed by the gob encoding of the payload. Load
// refuses files whose header does not match what the caller expects.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Version is the current file format version.
const Version = 1

// FileName is the conventional checkpoint file name inside an output directory.
const FileName = "checkpoint.zst"

var (
	// ErrHeader indicates a missing or unreadable header line.
	ErrHeader = errors.New("snapshot: bad header")

	// ErrMismatch indicates a header of another version or payload kind.
	ErrMismatch = errors.New("snapshot: header mismatch")
)

// Header is the first line of every snapshot file.
type Header struct {
	Version int    `json:"version"`
	Kind    string `json:"kind"`
}

// Save writes v to path under the given kind, creating the parent
// directory. The file is written to a temporary name first and renamed,
// so an interrupted Save leaves the previous snapshot intact.
func Save(path, kind string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := write(tmp, kind, v); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

func write(path, kind string, v any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(Header{Version: Version, Kind: kind})
	if err != nil {
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(v); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// Load decodes the snapshot at path into v, which must be a pointer. The
// header must carry the current Version and the given kind.
func Load(path, kind string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("snapshot: %s: %w", path, err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("snapshot: %s: %v: %w", path, err, ErrHeader)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return fmt.Errorf("snapshot: %s: %v: %w", path, err, ErrHeader)
	}
	if h.Version != Version || h.Kind != kind {
		return fmt.Errorf("snapshot: %s: got %s v%d, want %s v%d: %w",
			path, h.Kind, h.Version, kind, Version, ErrMismatch)
	}
	if err := gob.NewDecoder(br).Decode(v); err != nil {
		return fmt.Errorf("snapshot: %s: gob decode: %w", path, err)
	}
	return nil
}
