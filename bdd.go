package bddconv

// Berkeley DeepDrive (BDD) specific functionality.

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BDDBox2D is an axis-aligned bounding box in source image pixels. Missing keys decode to nil.
type BDDBox2D struct {
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
	X2 *float64 `json:"x2"`
	Y2 *float64 `json:"y2"`
}

// BDDObject is a single labelled object. Objects without a box (lanes, drivable areas) have a nil
// Box2D.
type BDDObject struct {
	Category string    `json:"category"`
	Box2D    *BDDBox2D `json:"box2d"`

	hasBox2D bool // The box2d key is present, possibly with a null value.
}

// UnmarshalJSON decodes the object and records whether the box2d key is present, to tell a missing
// box from "box2d": null.
func (o *BDDObject) UnmarshalJSON(data []byte) error {
	var raw struct {
		Category string          `json:"category"`
		Box2D    json.RawMessage `json:"box2d"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = BDDObject{Category: raw.Category, hasBox2D: raw.Box2D != nil}
	if o.hasBox2D && string(raw.Box2D) != "null" {
		o.Box2D = &BDDBox2D{}
		if err := json.Unmarshal(raw.Box2D, o.Box2D); err != nil {
			return err
		}
	}
	return nil
}

// BDDFrame holds the objects of one video frame. A nil Objects means the key was missing.
type BDDFrame struct {
	Objects *[]BDDObject `json:"objects"`
}

// BDDLabel defines the BDD annotation structure for a single image.
type BDDLabel struct {
	Name   string     `json:"name,omitempty"`
	Frames []BDDFrame `json:"frames"`
}

// ReadBDDFile reads and parses the BDD label file at path. Only the first frame is used.
//
// Returns a *MalformedRecordError if the file is not valid JSON or required keys are missing.
func ReadBDDFile(path string) (AnnotatedFile, error) {
	enc, err := readFile(path)
	if err != nil {
		return AnnotatedFile{}, fmt.Errorf("cannot read file %q: %w", path, err)
	}

	fileData, err := parseBDD(enc)
	if err != nil {
		return AnnotatedFile{}, &MalformedRecordError{FilePath: path, Err: err}
	}
	fileData.FilePath = path

	return fileData, nil
}

// parseBDD decodes a BDD label and converts it to the intermediate representation.
func parseBDD(enc []byte) (AnnotatedFile, error) {
	var label BDDLabel
	if err := json.Unmarshal(enc, &label); err != nil {
		return AnnotatedFile{}, err
	}

	if len(label.Frames) == 0 {
		return AnnotatedFile{}, errors.New("missing frames")
	}
	if label.Frames[0].Objects == nil {
		return AnnotatedFile{}, errors.New("missing objects in the first frame")
	}
	objects := *label.Frames[0].Objects

	fileData := AnnotatedFile{Annotations: make([]Annotation, 0, len(objects))}
	for i, o := range objects {
		if o.Box2D == nil {
			if o.hasBox2D {
				return AnnotatedFile{}, fmt.Errorf("object %d: null box2d", i)
			}
			continue
		}

		b := o.Box2D
		if b.X1 == nil || b.Y1 == nil || b.X2 == nil || b.Y2 == nil {
			return AnnotatedFile{}, fmt.Errorf("object %d: incomplete box2d", i)
		}

		fileData.Annotations = append(fileData.Annotations, Annotation{
			Coords: [4]float64{*b.X1, *b.Y1, *b.X2, *b.Y2},
			Label:  o.Category,
		})
	}

	return fileData, nil
}
