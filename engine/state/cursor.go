package state

import "fmt"

// NextFileCursor implements the File strategy's "sequential" selection
// policy: a per-file-path cursor advanced on every call and wrapped modulo
// length, reusing the Store rather than adding dedicated cursor state
// (per SPEC_FULL.md §11's supplement over the original's hardcoded index 0).
func (s *Store) NextFileCursor(path string, length int) int {
	if length <= 0 {
		return 0
	}
	key := fmt.Sprintf("mockfile:%s:cursor", path)
	next := s.Increment(key) - 1
	return int(next % int64(length))
}
