// Package store abstracts the bulk transfer of snapshot and report files
// between the run's working directory and the remote store the warehouse
// pipeline reads and writes.
package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store moves whole files between a remote location and the local
// filesystem. The verification pipeline only ever needs a local path on each
// side of a run, so cloud-backed implementations can slot in here without
// touching the pipeline itself.
type Store interface {
	Fetch(ctx context.Context, remote, local string) error
	Put(ctx context.Context, local, remote string) error
}

// LocalStore serves remote paths out of a directory tree. It stands in for
// the data lake in local runs and in tests.
type LocalStore struct {
	Root string
}

// Fetch copies root/remote to the local path.
func (s LocalStore) Fetch(ctx context.Context, remote, local string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := copyFile(filepath.Join(s.Root, remote), local); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", remote, err)
	}
	return nil
}

// Put copies the local path to root/remote, creating directories as needed.
func (s LocalStore) Put(ctx context.Context, local, remote string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst := filepath.Join(s.Root, remote)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to put %s: %w", remote, err)
	}
	if err := copyFile(local, dst); err != nil {
		return fmt.Errorf("failed to put %s: %w", remote, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
