// Package writer writes the post-processed gcode back out, atomically so
// a crash mid-write never leaves a truncated gcode file in place of the
// original.
package writer

import "os"

// WriteFile writes contents to filename via a temp file in the same
// directory plus a rename, so a reader never observes a partially written
// file.
func WriteFile(filename string, contents string) error {
	tmp := filename + ".tmp"

	buf, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := buf.WriteString(contents); err != nil {
		buf.Close()
		os.Remove(tmp)
		return err
	}

	if err := buf.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, filename)
}
