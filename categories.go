package bddconv

// The fixed BDD object detection category vocabulary.

import (
	"bufio"
	"fmt"
	"os"
)

// categoryIDs maps the BDD category names to the YOLO class IDs.
var categoryIDs = map[string]int{
	"bus":           0,
	"traffic light": 1,
	"traffic sign":  2,
	"person":        3,
	"bike":          4,
	"truck":         5,
	"motor":         6,
	"car":           7,
	"train":         8,
	"rider":         9,
}

// CategoryID returns the class ID for the category name. It returns an *UnknownCategoryError if the
// name is not part of the vocabulary.
func CategoryID(name string) (int, error) {
	id, ok := categoryIDs[name]
	if !ok {
		return 0, &UnknownCategoryError{Category: name}
	}
	return id, nil
}

// CategoryNames returns the category names indexed by class ID.
func CategoryNames() []string {
	names := make([]string, len(categoryIDs))
	for name, id := range categoryIDs {
		names[id] = name
	}
	return names
}

// WriteCategoryNames writes the category names to path, one per line in class ID order.
func WriteCategoryNames(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for _, name := range CategoryNames() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return w.Flush()
}
