package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported audio file extensions
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".opus": true,
	".wav":  true,
	".aac":  true,
	".ogg":  true,
	".oga":  true,
	".wma":  true,
	".ape":  true,
	".wv":   true,
	".aiff": true,
	".mka":  true,
	".dsf":  true,
}

// Lyric file extensions, timed formats first
var lyricExtensions = map[string]bool{
	".lrc": true,
	".txt": true,
}

// IsAudioFile reports whether a path (or a bare extension such as ".mp3")
// names a known audio format.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))] ||
		audioExtensions[strings.ToLower(path)]
}

// IsLyricFile reports whether a path (or a bare extension) names a lyric file.
func IsLyricFile(path string) bool {
	return lyricExtensions[strings.ToLower(filepath.Ext(path))] ||
		lyricExtensions[strings.ToLower(path)]
}

// FindLyricFiles recursively finds lyric files in the given directories.
// Directories that do not exist are skipped. The result is sorted so
// callers see the same order on every scan.
func FindLyricFiles(dirs ...string) ([]string, error) {
	var files []string

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("cannot access lyric directory %s: %w", dir, err)
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && IsLyricFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking directory %s: %w", dir, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// SanitizeFileName replaces characters that are problematic in file names.
func SanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(s)
}

// SaveLyrics writes data to dir/name atomically: it is written to a
// temporary file in dir and then renamed over the target, replacing any
// existing file. Returns the final path.
func SaveLyrics(dir, name string, data []byte) (string, error) {
	if dir == "" || name == "" {
		return "", fmt.Errorf("directory and file name cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create lyric directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lyricfinder-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write lyrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}

	dst := filepath.Join(dir, SanitizeFileName(name))
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move lyrics into place: %w", err)
	}
	return dst, nil
}
