// File: endemism/pkg/project/copy.go
package project

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyPackage copies the contents of src into dst, which must not exist yet.
// Top-level entries named in ignore are skipped.
func CopyPackage(src, dst string, ignore []string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("package source %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("package source %s is not a directory", src)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("destination %s already exists", dst)
	}
	if Contains(src, dst) {
		return fmt.Errorf("cannot copy %s to a subdirectory of itself, %s", src, dst)
	}

	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0700); err != nil {
		return err
	}
	for _, entry := range entries {
		if skip[entry.Name()] {
			continue
		}
		if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// ReplacePackage installs a fresh copy of src as name under modulesDir.
// The copy is staged first, so a failure leaves any existing install untouched.
func ReplacePackage(src, modulesDir, name string, ignore []string) error {
	dst, err := PackageDir(modulesDir, name)
	if err != nil {
		return err
	}
	staging, err := os.MkdirTemp(modulesDir, ".staging-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	staged := filepath.Join(staging, "package")
	if err := CopyPackage(src, staged, ignore); err != nil {
		return err
	}

	previous := filepath.Join(staging, "previous")
	hadPrevious := true
	if err := os.Rename(dst, previous); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		hadPrevious = false
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(staged, dst); err != nil {
		if hadPrevious {
			if rbErr := os.Rename(previous, dst); rbErr != nil {
				return fmt.Errorf("%w (restoring previous copy: %v)", err, rbErr)
			}
		}
		return err
	}
	return nil
}

// copyTree recursively copies a file, symlink or directory from src to dst.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(target, dstPath)
		case info.IsDir():
			return os.MkdirAll(dstPath, info.Mode().Perm()|0700)
		case !info.Mode().IsRegular():
			// sockets, fifos and devices have no place in a package
			return nil
		}
		return copyFile(path, dstPath, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()
	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, mode.Perm())
}
