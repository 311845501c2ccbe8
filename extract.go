package schemadelta

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

// Extract copies the regular files of dir in src into the directory dst.
// Subdirectories are not descended into.
func Extract(src fs.FS, dir, dst string) error {
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(src, dir)
	if err != nil {
		return &ScriptSourceError{Path: dir, Err: err}
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := path.Join(dir, entry.Name())
		if err := copyFile(src, name, filepath.Join(dst, entry.Name())); err != nil {
			return &ScriptSourceError{Path: name, Err: err}
		}
	}
	return nil
}

func copyFile(src fs.FS, name, target string) error {
	in, err := src.Open(name)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// removeAll deletes extraction directories. Tests replace it.
var removeAll = os.RemoveAll

// withExtractedDeltas extracts dir of src into a fresh temporary directory
// under base, runs f with a source reading from it, and removes the
// directory afterwards whatever f returns. A failed removal is logged and
// never replaces f's result.
func withExtractedDeltas(logger *zap.Logger, base string, src fs.FS, dir string, f func(ScriptSource) error) error {
	tmp, err := os.MkdirTemp(base, "deltas")
	if err != nil {
		return &ScriptSourceError{Err: fmt.Errorf("create extraction directory: %w", err)}
	}
	defer func() {
		if err := removeAll(tmp); err != nil {
			logger.Warn("failed to remove delta extraction directory",
				zap.String("dir", tmp),
				zap.Error(err))
		}
	}()

	if err := Extract(src, dir, tmp); err != nil {
		return err
	}
	logger.Debug("extracted deltas",
		zap.String("from", dir),
		zap.String("to", tmp))
	return f(FSSource{FS: os.DirFS(tmp)})
}
