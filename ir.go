package bddconv

// The intermediate annotation metadata representation.

import (
	"fmt"
	"strings"
)

// Annotation is the intermediate representation of an object label.
type Annotation struct {
	Coords [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
	Label  string
}

// Width is the object width from a.Coords.
func (a Annotation) Width() float64 {
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height from a.Coords.
func (a Annotation) Height() float64 {
	return a.Coords[3] - a.Coords[1]
}

// AnnotatedFile is the intermediate representation of file metadata.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations.
	FilePath    string       // The label file the annotations were read from.
}

// Resolution is an image size in pixels.
type Resolution struct {
	Width  int
	Height int
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// rescale maps all Annotations.Coords from the image resolution from to the resolution to.
func (f *AnnotatedFile) rescale(from, to Resolution) {
	for i := range f.Annotations {
		for j := 0; j < 4; j++ {
			if j&1 == 0 {
				f.Annotations[i].Coords[j] = f.Annotations[i].Coords[j] * float64(to.Width) /
					float64(from.Width)
			} else {
				f.Annotations[i].Coords[j] = f.Annotations[i].Coords[j] * float64(to.Height) /
					float64(from.Height)
			}
		}
	}
}

// LabelMappings is an ordered list of label (sub-)string replacements.
type LabelMappings []struct{ old, new string }

// ParseLabelMappings parses mappings of the format old=new.
func ParseLabelMappings(mappings []string) (LabelMappings, error) {
	replacements := make(LabelMappings, len(mappings))
	for i, v := range mappings {
		a := strings.Split(v, "=")
		if len(a) != 2 || a[0] == "" {
			return nil, fmt.Errorf("invalid mapping: %v", v)
		}

		replacements[i].old = a[0]
		replacements[i].new = a[1]
	}
	return replacements, nil
}

// apply replaces label (sub-)strings in all annotations of f, in order. It returns the number of
// labels that changed.
func (m LabelMappings) apply(f *AnnotatedFile) int {
	if len(m) == 0 {
		return 0
	}

	count := 0
	for i := range f.Annotations {
		a := &f.Annotations[i]

		oldLabel := a.Label
		for _, r := range m {
			a.Label = strings.Replace(a.Label, r.old, r.new, -1)
		}

		if a.Label != oldLabel {
			count++
		}
	}
	return count
}
