package bddconv

// YOLO specific functionality.

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// YOLOAnnotation is a single annotation within a YOLO label file.
type YOLOAnnotation struct {
	ClassID int
	Coords  [4]float64 // center x, center y, width, height, normalised to [0, 1].
}

// YOLOAnnotatedFile defines the YOLO annotation structure for a single file.
type YOLOAnnotatedFile struct {
	Annotations []YOLOAnnotation
	FilePath    string // The source label file.
}

// ToYOLO converts the intermediate representation of one file, with coordinates in pixels of the
// src resolution, to YOLO annotations normalised to the tar resolution.
//
// Boxes narrower or lower than one target pixel are dropped. Labels must be part of the category
// vocabulary, otherwise an *UnknownCategoryError is returned.
func ToYOLO(fileData AnnotatedFile, src, tar Resolution) (YOLOAnnotatedFile, error) {
	// Work on a copy, rescale modifies the annotations in place.
	scaled := AnnotatedFile{
		Annotations: append([]Annotation(nil), fileData.Annotations...),
		FilePath:    fileData.FilePath,
	}
	scaled.rescale(src, tar)

	invWidth := 1.0 / float64(tar.Width)
	invHeight := 1.0 / float64(tar.Height)

	yoloFileData := YOLOAnnotatedFile{
		Annotations: make([]YOLOAnnotation, 0, len(scaled.Annotations)),
		FilePath:    fileData.FilePath,
	}
	for _, a := range scaled.Annotations {
		id, err := CategoryID(a.Label)
		if err != nil {
			return YOLOAnnotatedFile{}, &UnknownCategoryError{Category: a.Label, FilePath: fileData.FilePath}
		}

		cx := (a.Coords[0] + a.Coords[2]) / 2 * invWidth
		cy := (a.Coords[1] + a.Coords[3]) / 2 * invHeight
		w := a.Width() * invWidth
		h := a.Height() * invHeight

		// Ignore objects smaller than one pixel.
		if w < invWidth || h < invHeight {
			continue
		}

		yoloFileData.Annotations = append(yoloFileData.Annotations, YOLOAnnotation{
			ClassID: id,
			Coords:  [4]float64{cx, cy, w, h},
		})
	}

	return yoloFileData, nil
}

// FileExtension returns the label file extension for the field delimiter.
func FileExtension(delimiter string) string {
	if delimiter == "," {
		return ".csv"
	}
	return ".txt"
}

// WriteYOLO writes the annotations of fileData to a file in dirPath named after the source label
// file, with its extension replaced by FileExtension(delimiter). An existing file is overwritten.
//
// Returns the path of the written file.
func WriteYOLO(dirPath string, fileData YOLOAnnotatedFile, delimiter string) (path string, err error) {
	_, baseNoExt, _ := splitPath(fileData.FilePath)
	path = filepath.Join(dirPath, baseNoExt+FileExtension(delimiter))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for _, a := range fileData.Annotations {
		if _, err := w.WriteString(formatYOLOLine(a, delimiter)); err != nil {
			return "", fmt.Errorf("cannot write file %q: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("cannot write file %q: %w", path, err)
	}

	return path, nil
}

// formatYOLOLine formats a as a newline terminated line of delimiter separated values.
func formatYOLOLine(a YOLOAnnotation, delimiter string) string {
	buf := make([]byte, 0, 64)
	buf = strconv.AppendInt(buf, int64(a.ClassID), 10)
	for _, v := range a.Coords {
		buf = append(buf, delimiter...)
		buf = strconv.AppendFloat(buf, v, 'f', 8, 64)
	}
	return string(append(buf, '\n'))
}
