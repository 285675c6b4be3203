package raster

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var rasterExtensions = []string{".tif", ".tiff", ".gtiff"}

// IsRasterFile checks if the given file extension is one of the known GeoTIFF extensions
func IsRasterFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, v := range rasterExtensions {
		if v == ext {
			return true
		}
	}
	return false
}

// IsReprojectedOutput checks if a file name looks like something this tool produced
func IsReprojectedOutput(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), OutputSuffix)
}

// FindRasterFiles walks directory and returns GeoTIFFs that are not outputs
// of a previous run, sorted for a deterministic processing order.
func FindRasterFiles(directory string) ([]string, error) {
	return findFiles(directory, func(path string) bool {
		return IsRasterFile(path) && !IsReprojectedOutput(path)
	})
}

// FindReprojectedFiles walks directory and returns the outputs of previous runs, sorted.
func FindReprojectedFiles(directory string) ([]string, error) {
	return findFiles(directory, func(path string) bool {
		return IsRasterFile(path) && IsReprojectedOutput(path)
	})
}

func findFiles(directory string, keep func(string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if keep(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces directory arguments with the raster files they
// contain. Plain files are kept as given, in argument order.
func ExpandPaths(paths []string) ([]string, error) {
	return expand(paths, FindRasterFiles)
}

// ExpandOutputs is ExpandPaths for previously reprojected files.
func ExpandOutputs(paths []string) ([]string, error) {
	return expand(paths, FindReprojectedFiles)
}

func expand(paths []string, find func(string) ([]string, error)) ([]string, error) {
	var expanded []string

	for _, path := range paths {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		if !fi.IsDir() {
			expanded = append(expanded, path)
			continue
		}

		found, err := find(path)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
		}
		expanded = append(expanded, found...)
	}

	return expanded, nil
}
