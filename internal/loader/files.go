package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CollectFiles resolves model files from the provided paths. A directory
// contributes its JSON, YAML and TOML files; with recursive set its
// subdirectories are walked as well. Explicit file paths are kept whatever
// their extension.
func CollectFiles(paths []string, recursive bool) ([]string, error) {
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %q: %w", p, err)
		}

		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		if recursive {
			err = filepath.WalkDir(p, func(path string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				if !d.IsDir() && isModelFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking directory %q: %w", p, err)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %q: %w", p, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isModelFile(entry.Name()) {
				files = append(files, filepath.Join(p, entry.Name()))
			}
		}
	}

	return files, nil
}

func isModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	}
	return false
}
