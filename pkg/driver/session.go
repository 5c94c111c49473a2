package driver

import (
	"sanity/engine-go/pkg/interpreter"
)

// Restore seeds an interpreter with the dream snapshot belonging to a source
// file. Call it before the first statement runs; declared dream variables
// pick their values up from here.
func Restore(i *interpreter.Interpreter, sourcePath string) error {
	values, tampered, err := LoadDreams(DreamPath(sourcePath))
	if err != nil {
		return err
	}
	i.Dreams = values
	i.TamperedDreams = tampered
	return nil
}

// Persist writes whatever dreams survived the run back to the snapshot.
func Persist(i *interpreter.Interpreter, sourcePath string) error {
	return SaveDreams(DreamPath(sourcePath), i.Dreams)
}
