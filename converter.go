package bddconv

import (
	"errors"
	"fmt"
	"log"
	"os"
)

// RecordWriter receives each converted file, in conversion order, in addition to the YOLO label
// files written by a Converter.
type RecordWriter interface {
	WriteRecord(fileData YOLOAnnotatedFile) error
}

// Converter converts directories of BDD label files to YOLO label files.
type Converter struct {
	Source        Resolution    // The resolution the BDD coordinates refer to.
	Target        Resolution    // The resolution the YOLO coordinates are normalised to.
	Delimiter     string        // The YOLO field delimiter.
	LabelMappings LabelMappings // Applied to the BDD categories before the vocabulary lookup.
}

// NewConverter returns a Converter after validating its arguments. The labelMappings have the
// format old=new.
func NewConverter(src, tar Resolution, delimiter string, labelMappings []string) (*Converter, error) {
	if !src.Valid() {
		return nil, fmt.Errorf("invalid source resolution %v", src)
	}
	if !tar.Valid() {
		return nil, fmt.Errorf("invalid target resolution %v", tar)
	}
	if delimiter == "" {
		return nil, errors.New("empty delimiter")
	}

	mappings, err := ParseLabelMappings(labelMappings)
	if err != nil {
		return nil, err
	}

	return &Converter{
		Source:        src,
		Target:        tar,
		Delimiter:     delimiter,
		LabelMappings: mappings,
	}, nil
}

// Convert converts every label file in srcDir and writes one YOLO label file per input file to
// tarDir, which is created if necessary.
func Convert(srcDir, tarDir string, srcWidth, srcHeight, tarWidth, tarHeight int,
	delimiter string) error {

	c, err := NewConverter(Resolution{srcWidth, srcHeight}, Resolution{tarWidth, tarHeight},
		delimiter, nil)
	if err != nil {
		return err
	}

	_, err = c.Convert(srcDir, tarDir)
	return err
}

// Convert converts every regular file in srcDir, in file name order, and writes the YOLO label
// files to tarDir. Each converted file is also passed to the sinks.
//
// The first error aborts the conversion. Files converted before that remain in tarDir.
//
// Returns the number of files written.
func (c *Converter) Convert(srcDir, tarDir string, sinks ...RecordWriter) (int, error) {
	labelFiles, err := filesByExtInDir(srcDir, "")
	if err != nil {
		return 0, err
	}
	log.Printf("Converting labels for %d files", len(labelFiles))

	if err := os.MkdirAll(tarDir, 0755); err != nil {
		return 0, fmt.Errorf("cannot create directory %q: %w", tarDir, err)
	}

	var numLabels, numMapped int
	for i, path := range labelFiles {
		yoloFileData, mapped, err := c.ConvertFile(path)
		if err != nil {
			return i, err
		}
		numMapped += mapped
		numLabels += len(yoloFileData.Annotations)

		if _, err := WriteYOLO(tarDir, yoloFileData, c.Delimiter); err != nil {
			return i, err
		}
		for _, s := range sinks {
			if err := s.WriteRecord(yoloFileData); err != nil {
				return i + 1, err
			}
		}
	}

	if len(c.LabelMappings) > 0 {
		log.Printf("The label mappings changed %d labels", numMapped)
	}
	log.Printf("Wrote %d labels for %d files to %s", numLabels, len(labelFiles), tarDir)

	return len(labelFiles), nil
}

// ConvertFile reads the BDD label file at path and converts it to YOLO annotations.
//
// Also returns the number of labels changed by the label mappings.
func (c *Converter) ConvertFile(path string) (YOLOAnnotatedFile, int, error) {
	fileData, err := ReadBDDFile(path)
	if err != nil {
		return YOLOAnnotatedFile{}, 0, err
	}

	mapped := c.LabelMappings.apply(&fileData)

	yoloFileData, err := ToYOLO(fileData, c.Source, c.Target)
	if err != nil {
		return YOLOAnnotatedFile{}, mapped, err
	}
	return yoloFileData, mapped, nil
}
