// Converts Berkeley DeepDrive (BDD) object detection labels to the YOLO label format, optionally
// resizing the images and exporting the labels as TFRecord.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sensorable/bddconv"
)

var (
	srcLabelsDir string // The input directory with the BDD label files.
	tarLabelsDir string // The output directory for the YOLO label files.

	srcWidth  int    // The width of the images the BDD labels refer to.
	srcHeight int    // The height of the images the BDD labels refer to.
	tarWidth  int    // The width of the images the YOLO labels refer to.
	tarHeight int    // The height of the images the YOLO labels refer to.
	delimiter string // The YOLO field delimiter.

	labelMappings string // A comma-separated string of label mappings.

	imagesDir    string // The input directory with the labelled images.
	imagesOutDir string // The output directory for resized images.
	resizeFilter string // The resampling algorithm.
	jpegQuality  int    // The JPEG quality for JPEG outputs.

	tfRecordOutPath string // The TFRecord output file.
	labelMapOutPath string // The TFRecord label map file.
	numShards       int    // The number of TFRecord shard files to create.
	namesOutPath    string // The class names file.
)

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
		_, _ = fmt.Fprintln(os.Stderr, "  labels:\t-src_labels_dir <dir> -tar_labels_dir <dir>")
		_, _ = fmt.Fprintln(os.Stderr, "  images:\t-images_dir <dir> -images_out_dir <dir>")
		_, _ = fmt.Fprintln(os.Stderr, "  tfrecord:\t-tfrecord_out <file> -label_map_out <file> [-num_shards <n>]")
		_, _ = fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}

	printUsageAndExit := func(msg ...interface{}) {
		log.Print(msg...)
		flag.Usage()
		os.Exit(1)
	}

	// Path arguments.
	flag.StringVar(&srcLabelsDir, "src_labels_dir",
		"/data/data/datasets/berkeley_deep_drive/object_detection/labels/val/",
		"The `path` to the source label files")
	flag.StringVar(&tarLabelsDir, "tar_labels_dir",
		"/data/data/datasets/berkeley_deep_drive/object_detection/labels/val_resized/",
		"The `path` to the target label files")

	// Conversion arguments.
	flag.IntVar(&srcWidth, "src_width", 1280, "The width of the source images")
	flag.IntVar(&srcHeight, "src_height", 720, "The height of the source images")
	flag.IntVar(&tarWidth, "tar_width", 416, "The width of the target images")
	flag.IntVar(&tarHeight, "tar_height", 416, "The height of the target images")
	flag.StringVar(&delimiter, "delimiter", " ",
		"The field delimiter for the target labels (\",\" writes .csv files, anything else .txt)")
	flag.StringVar(&labelMappings, "map_labels", labelMappings,
		"Comma-separated list of old=new category (sub-)string replacements")

	// Image processing arguments.
	flag.StringVar(&imagesDir, "images_dir", imagesDir,
		"The `path` to the source images to resize to the target size (optional)")
	flag.StringVar(&imagesOutDir, "images_out_dir", imagesOutDir,
		"The `path` to the output directory for resized images")
	flag.StringVar(&resizeFilter, "resize_filter", "linear",
		"The filter to use when resizing an image {nearest, box, linear, gaussian, lanczos}")
	flag.IntVar(&jpegQuality, "jpeg_quality", 90, "The quality to use when encoding JPEGs [1, 100]")

	// Additional outputs.
	flag.StringVar(&tfRecordOutPath, "tfrecord_out", tfRecordOutPath,
		"The TFRecord output file `path` (optional)")
	flag.StringVar(&labelMapOutPath, "label_map_out", labelMapOutPath,
		"The TFRecord label map file `path`")
	flag.IntVar(&numShards, "num_shards", 1, "The number of TFRecord shard files to create")
	flag.StringVar(&namesOutPath, "names_out", namesOutPath,
		"The `path` to write the class names to, one per line (optional)")

	// Parse and validate flags.
	flag.Parse()

	if srcWidth <= 0 || srcHeight <= 0 || tarWidth <= 0 || tarHeight <= 0 {
		printUsageAndExit("Image dimensions must be positive")
	}
	if utf8.RuneCountInString(delimiter) != 1 {
		printUsageAndExit("The delimiter must be a single character")
	}
	if (imagesDir == "") != (imagesOutDir == "") {
		printUsageAndExit("Flags -images_dir and -images_out_dir must be used together")
	}
	if tfRecordOutPath != "" && labelMapOutPath == "" {
		printUsageAndExit("Missing label map output path argument")
	}
	if numShards < 1 {
		printUsageAndExit("Invalid -num_shards, must be at least 1")
	}
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = 90
		log.Print("Invalid JPEG quality, setting it to ", jpegQuality)
	}

	// Clean path arguments.
	srcLabelsDir = filepath.Clean(srcLabelsDir)
	tarLabelsDir = filepath.Clean(tarLabelsDir)
	if srcLabelsDir == tarLabelsDir {
		printUsageAndExit("The label input and output paths cannot be identical")
	}
	if imagesDir != "" {
		imagesDir = filepath.Clean(imagesDir)
		imagesOutDir = filepath.Clean(imagesOutDir)
		if imagesDir == imagesOutDir {
			printUsageAndExit("The image input and output paths cannot be identical")
		}
	}
}

func main() {
	log.Print("Values used for converting source to target labels")
	flag.VisitAll(func(f *flag.Flag) {
		log.Printf("  %s: %q", f.Name, f.Value)
	})

	var mappings []string
	if len(labelMappings) > 0 {
		mappings = strings.Split(labelMappings, ",")
	}

	src := bddconv.Resolution{Width: srcWidth, Height: srcHeight}
	tar := bddconv.Resolution{Width: tarWidth, Height: tarHeight}
	c, err := bddconv.NewConverter(src, tar, delimiter, mappings)
	if err != nil {
		log.Fatal("Invalid conversion arguments: ", err)
	}

	// Resize images first, so that they can be embedded in the TFRecord.
	if imagesDir != "" {
		if err := bddconv.ResizeImages(imagesDir, imagesOutDir, tar, resizeFilter,
			jpegQuality); err != nil {
			log.Fatal("Image processing failed: ", err)
		}
	}

	var sinks []bddconv.RecordWriter
	var tfRecordWriter *bddconv.TFRecordWriter
	if tfRecordOutPath != "" {
		tfRecordWriter, err = bddconv.NewTFRecordWriter(tfRecordOutPath, tar, imagesOutDir, numShards)
		if err != nil {
			log.Fatal(err)
		}
		sinks = append(sinks, tfRecordWriter)
	}

	log.Print("Conversion started")
	n, err := c.Convert(srcLabelsDir, tarLabelsDir, sinks...)
	if tfRecordWriter != nil {
		if err != nil {
			// A partial TFRecord is of no use.
			if discardErr := tfRecordWriter.Discard(); discardErr != nil {
				log.Print("Failed to remove the TFRecord files: ", discardErr)
			}
		} else {
			err = tfRecordWriter.Close()
		}
	}
	if err != nil {
		log.Fatalf("Conversion failed after %d files: %v", n, err)
	}

	// Write the class metadata.
	if tfRecordWriter != nil {
		if err := bddconv.WriteTFRecordLabelMap(labelMapOutPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("Successfully wrote %d records to %s", tfRecordWriter.Count(),
			strings.Join(tfRecordWriter.Paths(), ", "))
	}
	if namesOutPath != "" {
		if err := bddconv.WriteCategoryNames(namesOutPath); err != nil {
			log.Fatal(err)
		}
	}

	log.Print("Conversion completed")
}
