package bddconv

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// filesByExtInDir returns all regular files with file extension ext found directly in directory
// dirPath, sorted by name. All files are returned if extension is empty.
func filesByExtInDir(dirPath, ext string) (files []string, err error) {
	// Open the directory.
	dirInfo, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %w", dirPath, err)
	} else if !dirInfo.IsDir() {
		return nil, fmt.Errorf("cannot read directory %q: not a directory", dirPath)
	}
	dir, err := os.Open(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access %q: %w", dirPath, err)
	}
	defer closeWithErrCheck(dir, &err)

	// Iterate over all files in dir.
	files = make([]string, 0, 100)
	var fileList []os.FileInfo
	for fileList, err = dir.Readdir(100); len(fileList) > 0; fileList, err = dir.Readdir(100) {
		for _, file := range fileList {
			name := file.Name()
			// Must be a regular file or a symlink and have the requested extension/suffix.
			if (!file.Mode().IsRegular() && (file.Mode()&os.ModeSymlink == 0)) ||
				!strings.HasSuffix(name, ext) {
				continue
			}
			files = append(files, filepath.Join(dirPath, name))
		}
	}
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to list %q: %w", dirPath, err)
	}

	// The listing order of the file system is arbitrary.
	sort.Strings(files)

	return files, nil
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (without the dot). The extension is empty if the file name has none.
func splitPath(path string) (dir, baseNoExt, ext string) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)

	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]
	ext = strings.TrimPrefix(ext, ".")

	return dir, baseNoExt, ext
}

// mapFileNamesToExtensions maps the base names of the given file paths, with the file type
// extensions stripped off, to the file extension (without the dot).
func mapFileNamesToExtensions(filePaths []string) map[string]string {
	mapping := make(map[string]string, len(filePaths))
	for _, path := range filePaths {
		_, baseNoExt, ext := splitPath(path)
		if ext == "" {
			log.Printf("Missing file extension, ignoring %q", path)
			continue
		}
		mapping[baseNoExt] = ext
	}

	return mapping
}

// readFile uses ioutil.ReadAll to read the file at path.
func readFile(path string) (data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(f, &err)

	data, err = ioutil.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
