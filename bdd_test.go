package bddconv

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestReadBDDFile(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	path := writeTestFile(t, dir, "b1c66a42-6f7d68ca.json", `{
		"name": "b1c66a42-6f7d68ca",
		"frames": [{
			"timestamp": 10000,
			"objects": [
				{"category": "car", "id": 0, "attributes": {"occluded": false},
				 "box2d": {"x1": 100, "y1": 100.5, "x2": 200, "y2": 150}},
				{"category": "lane", "poly2d": [[1, 2, "L"]]},
				{"category": "traffic sign", "box2d": {"x1": 1, "y1": 2, "x2": 3, "y2": 4}}
			]
		}]
	}`)

	fileData, err := ReadBDDFile(path)
	if err != nil {
		t.Fatalf("ReadBDDFile failed: %v", err)
	}
	if fileData.FilePath != path {
		t.Errorf("Expected file path %q, got %q", path, fileData.FilePath)
	}

	want := []Annotation{
		{Coords: [4]float64{100, 100.5, 200, 150}, Label: "car"},
		{Coords: [4]float64{1, 2, 3, 4}, Label: "traffic sign"},
	}
	if len(fileData.Annotations) != len(want) {
		t.Fatalf("Expected %d annotations, got %d", len(want), len(fileData.Annotations))
	}
	for i := range want {
		if fileData.Annotations[i] != want[i] {
			t.Errorf("Annotation %d: expected %+v, got %+v", i, want[i], fileData.Annotations[i])
		}
	}
}

func TestReadBDDFileEmptyObjects(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	path := writeTestFile(t, dir, "empty.json", `{"frames":[{"objects":[]}]}`)
	fileData, err := ReadBDDFile(path)
	if err != nil {
		t.Fatalf("ReadBDDFile failed: %v", err)
	}
	if len(fileData.Annotations) != 0 {
		t.Errorf("Expected no annotations, got %v", fileData.Annotations)
	}
}

func TestReadBDDFileMalformed(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	cases := map[string]string{
		"invalid_json":    `{"frames": [`,
		"missing_frames":  `{"name": "x"}`,
		"empty_frames":    `{"frames": []}`,
		"missing_objects": `{"frames": [{"timestamp": 10000}]}`,
		"missing_y2":      `{"frames":[{"objects":[{"category":"car","box2d":{"x1":1,"y1":1,"x2":2}}]}]}`,
		"wrong_type":      `{"frames":[{"objects":[{"category":"car","box2d":{"x1":"a","y1":1,"x2":2,"y2":2}}]}]}`,
		"null_box2d":      `{"frames":[{"objects":[{"category":"bus","box2d":null}]}]}`,
		"null_x1":         `{"frames":[{"objects":[{"category":"car","box2d":{"x1":null,"y1":1,"x2":2,"y2":2}}]}]}`,
	}
	for name, content := range cases {
		path := writeTestFile(t, dir, name+".json", content)
		_, err := ReadBDDFile(path)
		var malformed *MalformedRecordError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected *MalformedRecordError, got %v", name, err)
			continue
		}
		if malformed.FilePath != path {
			t.Errorf("%s: expected path %q in the error, got %q", name, path, malformed.FilePath)
		}
	}
}

func TestReadBDDFileMissing(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	_, err := ReadBDDFile(filepath.Join(dir, "missing.json"))
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	var malformed *MalformedRecordError
	if errors.As(err, &malformed) {
		t.Errorf("A missing file is not a malformed record: %v", err)
	}
}

func TestReadBDDFileKeyCase(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	// encoding/json matches keys case-insensitively; differently cased keys are accepted.
	path := writeTestFile(t, dir, "upper.json",
		`{"FRAMES":[{"Objects":[{"Category":"car","BOX2D":{"X1":100,"Y1":100,"X2":200,"Y2":150}}]}]}`)
	fileData, err := ReadBDDFile(path)
	if err != nil {
		t.Fatalf("ReadBDDFile failed: %v", err)
	}

	want := Annotation{Coords: [4]float64{100, 100, 200, 150}, Label: "car"}
	if len(fileData.Annotations) != 1 || fileData.Annotations[0] != want {
		t.Errorf("Expected [%+v], got %+v", want, fileData.Annotations)
	}
}

func TestReadBDDFileObjectWithoutBox(t *testing.T) {
	dir, cleanup := tempDir(t)
	defer cleanup()

	// Only a missing box2d key skips the object, the category is not looked at.
	path := writeTestFile(t, dir, "lane.json",
		`{"frames":[{"objects":[{"category":"lane/single white"},{"category":"drivable area","poly2d":[]}]}]}`)
	fileData, err := ReadBDDFile(path)
	if err != nil {
		t.Fatalf("ReadBDDFile failed: %v", err)
	}
	if len(fileData.Annotations) != 0 {
		t.Errorf("Expected no annotations, got %+v", fileData.Annotations)
	}
}
