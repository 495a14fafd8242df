package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kinds of schedule artefact an inbox can hold.
const (
	KindEmail = "eml"
	KindPDF   = "pdf"
	KindText  = "csv" // converted export, .csv or .txt
)

type FileInfo struct {
	Path  string
	Kind  string
	Mtime int64
	Size  int64
}

// ScanInbox walks dir for schedule artefacts, oldest first so later weeks
// are ingested after earlier ones. A missing dir yields nothing.
func ScanInbox(dir string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip unreadable entries
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		kind := KindOf(path)
		if kind == "" || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		files = append(files, FileInfo{
			Path:  path,
			Kind:  kind,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
		return nil
	})
	if err != nil && os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Mtime != files[j].Mtime {
			return files[i].Mtime < files[j].Mtime
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// KindOf classifies path by extension, "" when it is not an artefact.
func KindOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".eml":
		return KindEmail
	case ".pdf":
		return KindPDF
	case ".csv", ".txt":
		return KindText
	}
	return ""
}
