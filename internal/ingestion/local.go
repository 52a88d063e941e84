package ingestion

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var allowedExt = []string{".pdf"}

// LoadLocalFiles returns root itself when it is a file, otherwise every PDF below it.
func LoadLocalFiles(root string) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return []string{root}, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if isAllowed(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func isAllowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowedExt {
		if ext == a {
			return true
		}
	}
	return false
}
