// Package archive packs a rendered dashboard into a single tar.lz4 file
// and unpacks it again.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// Extension is the conventional archive suffix.
const Extension = ".tar.lz4"

// ErrUnsafePath is returned for archive entries escaping the target directory.
var ErrUnsafePath = errors.New("archive entry escapes target directory")

// Stats summarizes a packed archive.
type Stats struct {
	Files int
	// Bytes is the uncompressed payload size.
	Bytes int64
	// Compressed is the archive file size.
	Compressed int64
}

// countingWriter tracks the compressed size.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}

// Pack writes every regular file under srcDir into dst. dst itself is
// skipped when it lies inside srcDir.
func Pack(ctx context.Context, srcDir, dst string) (Stats, error) {
	out, err := os.Create(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("create %s: %w", dst, err)
	}

	stats, packErr := pack(ctx, srcDir, dst, out)
	closeErr := out.Close()

	if packErr != nil || closeErr != nil {
		return stats, errors.Join(packErr, closeErr, os.Remove(dst))
	}

	return stats, nil
}

func pack(ctx context.Context, srcDir, dst string, out io.Writer) (Stats, error) {
	var stats Stats

	counter := &countingWriter{w: out}
	zw := lz4.NewWriter(counter)

	err := zw.Apply(lz4.CompressionLevelOption(lz4.Level5))
	if err != nil {
		return stats, fmt.Errorf("configure lz4: %w", err)
	}

	tw := tar.NewWriter(zw)

	absDst, err := filepath.Abs(dst)
	if err != nil {
		return stats, fmt.Errorf("resolve %s: %w", dst, err)
	}

	err = filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(srcDir, path)
		if relErr != nil || rel == "." {
			return relErr
		}

		if abs, absErr := filepath.Abs(path); absErr == nil && abs == absDst {
			return nil
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}

		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		header, headerErr := tar.FileInfoHeader(info, "")
		if headerErr != nil {
			return headerErr
		}

		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
		}

		writeErr := tw.WriteHeader(header)
		if writeErr != nil {
			return writeErr
		}

		if info.IsDir() {
			return nil
		}

		n, copyErr := copyFile(tw, path)
		if copyErr != nil {
			return copyErr
		}

		stats.Files++
		stats.Bytes += n

		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("pack %s: %w", srcDir, err)
	}

	err = tw.Close()
	if err != nil {
		return stats, fmt.Errorf("close tar: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return stats, fmt.Errorf("close lz4: %w", err)
	}

	stats.Compressed = counter.n

	return stats, nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return io.Copy(w, f)
}

// Unpack extracts src into dstDir.
func Unpack(src, dstDir string) error {
	return walk(src, func(header *tar.Header, r io.Reader) error {
		target, err := safeJoin(dstDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, 0o750)
		case tar.TypeReg:
			err = os.MkdirAll(filepath.Dir(target), 0o750)
			if err != nil {
				return err
			}

			return writeFile(target, r, header.FileInfo().Mode().Perm())
		default:
			return nil
		}
	})
}

// List returns the file entries of src.
func List(src string) ([]string, error) {
	var names []string

	err := walk(src, func(header *tar.Header, _ io.Reader) error {
		if header.Typeflag == tar.TypeReg {
			names = append(names, header.Name)
		}

		return nil
	})

	return names, err
}

func walk(src string, fn func(*tar.Header, io.Reader) error) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	tr := tar.NewReader(lz4.NewReader(f))

	for {
		header, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}

		if nextErr != nil {
			return fmt.Errorf("read %s: %w", src, nextErr)
		}

		err = fn(header, tr)
		if err != nil {
			return fmt.Errorf("%s: %w", header.Name, err)
		}
	}
}

func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))

	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	return target, nil
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(f, r)

	return errors.Join(copyErr, f.Close())
}
