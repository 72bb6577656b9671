package plan

import (
	"fmt"
	"path/filepath"
)

// Role identifies how a slot's source file is transformed.
type Role int

const (
	RoleIntro Role = iota
	RoleVideo
	RoleAudio
)

func (r Role) String() string {
	switch r {
	case RoleIntro:
		return "INTRO"
	case RoleVideo:
		return "VIDEO"
	case RoleAudio:
		return "AUDIO"
	default:
		return fmt.Sprintf("ROLE(%d)", int(r))
	}
}

// Slot is one numbered unit of work. Indices are contiguous starting at 1.
type Slot struct {
	Index int
	Name  string
	Path  string
	Role  Role
}

// ArtifactName returns the deterministic artifact filename for the slot.
// Artifact numbering is 0-based while slot numbering is 1-based; the
// off-by-one is part of the on-disk contract and must not change.
func (s Slot) ArtifactName() string {
	return ArtifactName(s.Index)
}

// ArtifactName maps a 1-based slot index to its 0-based artifact filename.
func ArtifactName(index int) string {
	return fmt.Sprintf("slot_%d.mp4", index-1)
}

// Plan is the ordered slot sequence for one run, plus the classification
// report of everything else seen in the directory.
type Plan struct {
	Dir     string
	Slots   []Slot
	Ignored []string
}

// Build assembles the contiguous slot sequence: intro (when present), then
// videos, then audio files. introPath may live outside dir when an explicit
// override was supplied.
func Build(dir string, c Categorized, introPath string) Plan {
	p := Plan{Dir: dir, Ignored: c.Ignored}
	index := 1
	if introPath != "" {
		p.Slots = append(p.Slots, Slot{Index: index, Name: filepath.Base(introPath), Path: introPath, Role: RoleIntro})
		index++
	}
	for _, name := range c.Video {
		p.Slots = append(p.Slots, Slot{Index: index, Name: name, Path: filepath.Join(dir, name), Role: RoleVideo})
		index++
	}
	for _, name := range c.Audio {
		p.Slots = append(p.Slots, Slot{Index: index, Name: name, Path: filepath.Join(dir, name), Role: RoleAudio})
		index++
	}
	return p
}

// Slot returns the slot with the given 1-based index, or false.
func (p Plan) Slot(index int) (Slot, bool) {
	if index < 1 || index > len(p.Slots) {
		return Slot{}, false
	}
	return p.Slots[index-1], true
}

// Select returns the slots for the given indices in ascending slot order,
// regardless of entry order.
func (p Plan) Select(indices []int) []Slot {
	selected := make(map[int]bool, len(indices))
	for _, index := range indices {
		selected[index] = true
	}
	slots := make([]Slot, 0, len(indices))
	for _, slot := range p.Slots {
		if selected[slot.Index] {
			slots = append(slots, slot)
		}
	}
	return slots
}
