package util

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ZipSource pairs a resolved filesystem path with the name it should carry
// inside the archive.
type ZipSource struct {
	Abs  string
	Name string
}

// RejectedEntry reports an archive entry that failed validation during
// extraction and was skipped.
type RejectedEntry struct {
	Entry  string
	Reason string
}

// StreamZipFromDirectory writes a zip of rootDir's contents to writer
// without materializing the archive on disk. Symlinks are skipped: their
// targets may point outside the sandbox.
func StreamZipFromDirectory(rootDir string, writer io.Writer) error {
	zipWriter := zip.NewWriter(writer)
	defer zipWriter.Close()

	baseDir := filepath.Clean(rootDir)

	return filepath.WalkDir(baseDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if path == baseDir {
			return nil
		}

		if entry.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}

		zipPath := filepath.ToSlash(rel)
		if entry.IsDir() {
			if !strings.HasSuffix(zipPath, "/") {
				zipPath += "/"
			}
			_, err := zipWriter.Create(zipPath)
			return err
		}

		source, err := os.Open(path)
		if err != nil {
			return err
		}
		defer source.Close()

		zipFile, err := zipWriter.Create(zipPath)
		if err != nil {
			return err
		}

		_, err = io.Copy(zipFile, source)
		return err
	})
}

// CompressPaths builds a zip at destZip from the given sources, each stored
// under its Name (directories recursively, entries prefixed with Name).
// Returns the number of entries written.
func CompressPaths(sources []ZipSource, destZip string) (int, error) {
	zipFile, err := os.Create(destZip)
	if err != nil {
		return 0, err
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	entries := 0
	for _, source := range sources {
		info, err := os.Stat(source.Abs)
		if err != nil {
			return entries, err
		}

		if !info.IsDir() {
			if err := addFileToZip(zipWriter, source.Abs, source.Name); err != nil {
				return entries, err
			}
			entries++
			continue
		}

		walkErr := filepath.WalkDir(source.Abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.Type()&os.ModeSymlink != 0 {
				return nil
			}

			rel, err := filepath.Rel(source.Abs, path)
			if err != nil {
				return err
			}

			zipPath := source.Name
			if rel != "." {
				zipPath = source.Name + "/" + filepath.ToSlash(rel)
			}

			if d.IsDir() {
				if !strings.HasSuffix(zipPath, "/") {
					zipPath += "/"
				}
				if _, err := zipWriter.Create(zipPath); err != nil {
					return err
				}
				entries++
				return nil
			}

			if err := addFileToZip(zipWriter, path, zipPath); err != nil {
				return err
			}
			entries++
			return nil
		})
		if walkErr != nil {
			return entries, walkErr
		}
	}

	return entries, nil
}

func addFileToZip(zipWriter *zip.Writer, sourcePath string, zipPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	w, err := zipWriter.Create(zipPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, source)
	return err
}

// ExtractZip unpacks srcZip into destDir. Every entry name is validated
// against destDir before a single byte is written: entries whose resolved
// target would land outside destDir (the classic "../evil" zip-slip shape)
// are skipped and reported, while the remaining entries still extract.
// Extracted entries are returned as absolute target paths.
func ExtractZip(srcZip string, destDir string) ([]string, []RejectedEntry, error) {
	reader, err := zip.OpenReader(srcZip)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	destClean := filepath.Clean(destDir)
	extracted := make([]string, 0, len(reader.File))
	rejected := make([]RejectedEntry, 0)

	for _, entry := range reader.File {
		target, ok := safeExtractTarget(destClean, entry.Name)
		if !ok {
			rejected = append(rejected, RejectedEntry{Entry: entry.Name, Reason: "entry path escapes the destination directory"})
			continue
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				rejected = append(rejected, RejectedEntry{Entry: entry.Name, Reason: err.Error()})
				continue
			}
			extracted = append(extracted, target)
			continue
		}

		if err := extractFileEntry(entry, target); err != nil {
			rejected = append(rejected, RejectedEntry{Entry: entry.Name, Reason: err.Error()})
			continue
		}

		extracted = append(extracted, target)
	}

	return extracted, rejected, nil
}

// safeExtractTarget joins an archive entry name onto destDir and confirms
// the result stays inside it. The prefix test includes the trailing
// separator so "dest-evil" does not pass as a child of "dest".
func safeExtractTarget(destClean string, entryName string) (string, bool) {
	name := filepath.ToSlash(entryName)
	if strings.Contains(name, "\x00") || filepath.IsAbs(name) {
		return "", false
	}

	target := filepath.Join(destClean, filepath.FromSlash(name))
	if target == destClean {
		return "", false
	}

	if !strings.HasPrefix(target, destClean+string(os.PathSeparator)) {
		return "", false
	}

	return target, true
}

func extractFileEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm()|0o200)
	if err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		_ = out.Close()
		return err
	}

	_, copyErr := io.Copy(out, rc)
	_ = rc.Close()
	closeErr := out.Close()

	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// ListZip reads the table of contents without extracting anything.
func ListZip(srcZip string) ([]ZipEntryInfo, error) {
	reader, err := zip.OpenReader(srcZip)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	infos := make([]ZipEntryInfo, 0, len(reader.File))
	for _, entry := range reader.File {
		infos = append(infos, ZipEntryInfo{
			Name:       entry.Name,
			Size:       int64(entry.UncompressedSize64),
			Compressed: int64(entry.CompressedSize64),
			IsDir:      entry.FileInfo().IsDir(),
		})
	}

	return infos, nil
}

type ZipEntryInfo struct {
	Name       string
	Size       int64
	Compressed int64
	IsDir      bool
}
