package core

import "fmt"

// Owners is a process-wide, never-torn-down slot table used to stamp
// human-debuggable owner tags onto registry entries (render features,
// render phases). It is intentionally global: the registry itself is
// process-wide and frozen before the first frame (spec §9).
var Owners []interface{}

// IdentifierAcquire reserves the next free slot for owner and returns its
// index.
func IdentifierAcquire(owner interface{}) uint32 {
	if len(Owners) == 0 {
		Owners = make([]interface{}, 100)
	}
	length := uint32(len(Owners))
	for i := uint32(0); i < length; i++ {
		if Owners[i] == nil {
			Owners[i] = owner
			return i
		}
	}

	Owners = append(Owners, owner)
	return uint32(len(Owners)) - 1
}

// IdentifierRelease frees a previously acquired slot.
func IdentifierRelease(id uint32) error {
	if len(Owners) == 0 {
		return fmt.Errorf("identifier_release called before any identifier was acquired")
	}
	if id >= uint32(len(Owners)) {
		return fmt.Errorf("identifier_release: id %d out of range (max=%d)", id, len(Owners))
	}
	Owners[id] = nil
	return nil
}
