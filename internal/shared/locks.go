package shared

import "fmt"

// SequenceLockKey builds redis keys guarding a numbering series.
func SequenceLockKey(series string) string {
	return fmt.Sprintf("gl:sequence:%s:lock", series)
}

// SequenceCounterKey builds the redis key holding the last issued number of a series.
func SequenceCounterKey(series string) string {
	return fmt.Sprintf("gl:sequence:%s", series)
}
