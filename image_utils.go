package bddconv

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// resampleFilter returns the imaging filter with the given name.
func resampleFilter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "linear":
		return imaging.Linear, nil
	case "gaussian":
		return imaging.Gaussian, nil
	case "lanczos":
		return imaging.Lanczos, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter %q", name)
}

// ResizeImages resizes all JPEG and PNG images in imageDir to exactly size, ignoring the aspect
// ratio, and writes them to imageOutDir, which is created if necessary.
//
// PNG images are written as PNG, all others as JPEG with the given quality. The output file names
// keep the base name of the input, so the images match the label files converted from the same
// base name.
func ResizeImages(imageDir, imageOutDir string, size Resolution, filterName string,
	jpegQuality int) error {

	if !size.Valid() {
		return fmt.Errorf("invalid image size %v", size)
	}
	filter, err := resampleFilter(filterName)
	if err != nil {
		return err
	}

	imageFiles, err := filesByExtInDir(imageDir, "")
	if err != nil {
		return err
	}
	paths := imageFiles[:0]
	for _, path := range imageFiles {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg", ".png":
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		log.Printf("No images found in %s", imageDir)
		return nil
	}
	log.Printf("Resizing %d images to %v", len(paths), size)

	if err := os.MkdirAll(imageOutDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %q: %w", imageOutDir, err)
	}

	// Limit the number of goroutines in flight, as they load potentially large images into memory.
	numTasks := 2 * runtime.NumCPU()
	if len(paths) < numTasks {
		numTasks = len(paths)
	}
	workQueue := make(chan string, 2*numTasks)
	errors := make(chan error, 1)
	var wg sync.WaitGroup

	trySendError := func(err error) {
		select {
		case errors <- err:
		default:
		}
	}

	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			defer wg.Done()
			for path := range workQueue {
				if err := resizeImageFile(path, imageOutDir, size, filter, jpegQuality); err != nil {
					trySendError(fmt.Errorf("failed to resize %q: %w", path, err))
				}
			}
		}()
	}

	// Feed the work queue.
	for _, path := range paths {
		workQueue <- path
	}
	close(workQueue)

	wg.Wait()
	close(errors)
	if len(errors) > 0 {
		return <-errors
	}

	return nil
}

// resizeImageFile resizes the image at path and saves it in imageOutDir.
func resizeImageFile(path, imageOutDir string, size Resolution, filter imaging.ResampleFilter,
	jpegQuality int) error {

	img, _, err := loadImage(path)
	if err != nil {
		return err
	}

	resized := resizeImage(img, size, filter)

	_, baseNoExt, ext := splitPath(path)
	outExt := ".jpg"
	if strings.ToLower(ext) == "png" {
		outExt = ".png"
	}

	return saveImage(filepath.Join(imageOutDir, baseNoExt+outExt), resized, jpegQuality)
}

// resizeImage resamples img to size. Images that already have the requested size are returned
// unchanged.
func resizeImage(img image.Image, size Resolution, filter imaging.ResampleFilter) image.Image {
	b := img.Bounds()
	if b.Dx() == size.Width && b.Dy() == size.Height {
		return img
	}
	return imaging.Resize(img, size.Width, size.Height, filter)
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path and returns the results of image.Decode.
func loadImage(path string) (img image.Image, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	return image.Decode(f)
}

// Saves the image to path, encoding it as PNG or JPG, depending on the file extension of path.
func saveImage(path string, img image.Image, jpegQuality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	}
	return err
}
