package bddconv

// TFRecord object detection specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/protobuf/proto"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFRecordWriter streams converted files as tensorflow.Example records to one or more TFRecord
// files, in the layout expected by the TensorFlow object detection API.
type TFRecordWriter struct {
	files    []*os.File        // The shard files.
	paths    []string          // The shard file paths.
	size     Resolution        // The resolution of the (resized) images.
	imageDir string            // Optional directory with the (resized) images.
	images   map[string]string // Image base names in imageDir to their file extension.
	count    int
}

// NewTFRecordWriter creates numShards TFRecord files at path. With more than one shard, the
// suffix -xxxxx-of-yyyyy is appended to path and records are distributed round-robin.
//
// If imageDir is not empty, images in imageDir with the same base name as a label file are embedded
// in its record.
func NewTFRecordWriter(path string, size Resolution, imageDir string, numShards int) (
	*TFRecordWriter, error) {

	if numShards <= 0 {
		numShards = 1
	}
	w := &TFRecordWriter{size: size, imageDir: imageDir}

	if imageDir != "" {
		imageFiles, err := filesByExtInDir(imageDir, "")
		if err != nil {
			return nil, err
		}
		w.images = mapFileNamesToExtensions(imageFiles)
	}

	for i := 0; i < numShards; i++ {
		shardPath := path
		if numShards > 1 {
			shardPath += fmt.Sprintf("-%05d-of-%05d", i, numShards)
		}
		file, err := os.Create(shardPath)
		if err != nil {
			_ = w.Discard()
			return nil, fmt.Errorf("failed to create shard at %q: %w", shardPath, err)
		}
		w.files = append(w.files, file)
		w.paths = append(w.paths, shardPath)
	}

	return w, nil
}

// WriteRecord converts fileData to a tensorflow.Example and appends it to the next shard.
func (w *TFRecordWriter) WriteRecord(fileData YOLOAnnotatedFile) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = fmt.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	features, err := w.toTFRecord(fileData)
	if err != nil {
		return fmt.Errorf("failed to convert %q: %w", fileData.FilePath, err)
	}

	shard := w.files[w.count%len(w.files)]
	if err := writeTFRecordExample(shard, example.New(features)); err != nil {
		return fmt.Errorf("failed to write example: %w", err)
	}
	w.count++

	return nil
}

// Count returns the number of records written.
func (w *TFRecordWriter) Count() int {
	return w.count
}

// Paths returns the shard file paths.
func (w *TFRecordWriter) Paths() []string {
	return w.paths
}

// Close closes all shard files.
func (w *TFRecordWriter) Close() error {
	var err error
	for _, f := range w.files {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}
	w.files = nil
	return err
}

// Discard closes and removes all shard files, e.g. after a failed conversion.
func (w *TFRecordWriter) Discard() error {
	err := w.Close()
	for _, path := range w.paths {
		if e := os.Remove(path); e != nil && !os.IsNotExist(e) && err == nil {
			err = e
		}
	}
	w.paths = nil
	return err
}

// toTFRecord converts the YOLO annotations for a single file to the TFRecord feature map.
func (w *TFRecordWriter) toTFRecord(fileData YOLOAnnotatedFile) (TFFeatureMap, error) {
	_, baseNoExt, _ := splitPath(fileData.FilePath)

	// Prepare the feature map for the per file data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = w.size.Height
	f["image/width"] = w.size.Width
	f["image/filename"] = baseNoExt
	f["image/source_id"] = baseNoExt

	// Embed the image, if there is one.
	if ext, ok := w.images[baseNoExt]; ok {
		imagePath := filepath.Join(w.imageDir, baseNoExt+"."+ext)
		_, format, err := decodeImageConfig(imagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to decode the image metadata: %w", err)
		}
		imgData, err := readFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read the image: %w", err)
		}
		f["image/filename"] = filepath.Base(imagePath)
		f["image/encoded"] = imgData
		f["image/format"] = format
	}

	// Prepare the per label data. The boxes are already normalised.
	numLabels := len(fileData.Annotations)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	names := CategoryNames()
	for i, a := range fileData.Annotations {
		cx, cy, halfW, halfH := a.Coords[0], a.Coords[1], a.Coords[2]/2, a.Coords[3]/2
		xmins[i] = float32(cx - halfW)
		ymins[i] = float32(cy - halfH)
		xmaxs[i] = float32(cx + halfW)
		ymaxs[i] = float32(cy + halfH)
		classes[i] = names[a.ClassID]
		// The object detection API reserves ID 0 for the background.
		classIDs[i] = int64(a.ClassID + 1)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// WriteTFRecordLabelMap writes the category vocabulary to path as a label map in prototxt format,
// with the IDs used in the TFRecord files.
func WriteTFRecordLabelMap(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create the label map file %q: %w", path, err)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for id, name := range CategoryNames() {
		if _, err := fmt.Fprintf(w, "item {\n  id: %d\n  name: %q\n}\n", id+1, name); err != nil {
			return fmt.Errorf("failed to write the label map %q: %w", path, err)
		}
	}
	return w.Flush()
}
