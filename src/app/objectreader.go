package app

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	bar "github.com/schollz/progressbar/v3"
)

// Files with a .txt extension that are not object definitions and must be
// skipped during the directory scan.
var nonObjectFiles = map[string]struct{}{
	"nextObjectNumber.txt": {},
	"groundHeat_4.txt":     {},
	"groundHeat_5.txt":     {},
	"groundHeat_6.txt":     {},
}

func isObjectFile(name string) bool {
	if filepath.Ext(name) != ".txt" {
		return false
	}
	_, excluded := nonObjectFiles[name]
	return !excluded
}

// ScannedObject is one candidate file's scan result. Err is set when the
// file did not parse as an object; such files are expected in a real objects
// directory and are skipped, not reported.
type ScannedObject struct {
	File   string
	Object Object
	Err    error
}

// StreamObjects enumerates candidate object files in dir and emits one
// ScannedObject per file as it is parsed, in os.ReadDir order (lexical by
// filename). Structural errors - unreadable directory, unreadable file - are
// sent on errs and stop the stream. It does NOT mutate globals.
func StreamObjects(dir string) (<-chan ScannedObject, <-chan error) {
	out := make(chan ScannedObject)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		entries, err := os.ReadDir(dir)
		if err != nil {
			errs <- err
			return
		}

		for _, e := range entries {
			if e.IsDir() || !isObjectFile(e.Name()) {
				continue
			}

			content, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				errs <- err
				return
			}

			obj, err := ParseObject(string(content))
			out <- ScannedObject{File: e.Name(), Object: obj, Err: err}
		}
	}()

	return out, errs
}

// CountObjectFiles counts the candidate object files in dir.
func CountObjectFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isObjectFile(e.Name()) {
			total++
		}
	}

	return total, nil
}

// CollectObjects drains StreamObjects into an ordered slice. Files that fail
// the object grammar are dropped from the result; the skip is logged at
// debug level only, so the output stays byte-for-byte independent of how
// many junk .txt files the directory holds.
func CollectObjects(dir string) ([]Object, error) {
	total, err := CountObjectFiles(dir)
	if err != nil {
		return nil, err
	}

	progress := bar.NewOptions(
		total,
		bar.OptionSetWriter(os.Stderr),
		bar.OptionSetDescription("Parsing objects"),
		bar.OptionShowCount(),
		bar.OptionShowIts(),
		bar.OptionSetItsString("files"),
		bar.OptionThrottle(100),
		bar.OptionClearOnFinish(),
	)

	objects := []Object{}
	elems, errs := StreamObjects(dir)

	for {
		select {
		case e, ok := <-elems:
			if !ok {
				elems = nil
			} else {
				_ = progress.Add(1)
				if e.Err != nil {
					log.Debug().Str("file", e.File).Err(e.Err).Msg("skipping non-object file")
				} else {
					objects = append(objects, e.Object)
				}
			}
		case err, ok := <-errs:
			if ok && err != nil {
				_ = progress.Finish()
				return nil, err
			}
			errs = nil
		}
		if elems == nil && errs == nil {
			break
		}
	}
	_ = progress.Finish()

	log.Debug().Int("total", total).Int("parsed", len(objects)).Msg("object scan finished")
	return objects, nil
}
