package bddconv

import "fmt"

// UnknownCategoryError is returned when a label is not part of the category vocabulary.
type UnknownCategoryError struct {
	Category string
	FilePath string // The label file the category was found in, if known.
}

func (e *UnknownCategoryError) Error() string {
	if e.FilePath == "" {
		return fmt.Sprintf("unknown category %q", e.Category)
	}
	return fmt.Sprintf("unknown category %q in %q", e.Category, e.FilePath)
}

// MalformedRecordError is returned when a label file cannot be decoded or lacks required keys.
type MalformedRecordError struct {
	FilePath string
	Err      error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %q: %v", e.FilePath, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
