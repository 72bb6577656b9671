package plan

import (
	"path/filepath"
	"testing"
)

func TestBuildOrdersAndIndexes(t *testing.T) {
	c := Categorized{
		Video: []string{"A - Amy.mov", "B - Zed.mp4"},
		Audio: []string{"C - Mid.mp3"},
	}
	p := Build("/work", c, "/work/intro.png")

	want := []struct {
		index int
		name  string
		role  Role
	}{
		{1, "intro.png", RoleIntro},
		{2, "A - Amy.mov", RoleVideo},
		{3, "B - Zed.mp4", RoleVideo},
		{4, "C - Mid.mp3", RoleAudio},
	}
	if len(p.Slots) != len(want) {
		t.Fatalf("slots = %+v", p.Slots)
	}
	for i, w := range want {
		slot := p.Slots[i]
		if slot.Index != w.index || slot.Name != w.name || slot.Role != w.role {
			t.Errorf("slot %d = %+v, want %+v", i, slot, w)
		}
	}
	if p.Slots[1].Path != filepath.Join("/work", "A - Amy.mov") {
		t.Fatalf("path = %q", p.Slots[1].Path)
	}
}

func TestBuildWithoutIntroStartsAtOne(t *testing.T) {
	p := Build("/work", Categorized{Video: []string{"v.mp4"}}, "")
	if len(p.Slots) != 1 || p.Slots[0].Index != 1 || p.Slots[0].Role != RoleVideo {
		t.Fatalf("slots = %+v", p.Slots)
	}
}

func TestArtifactNameOffByOne(t *testing.T) {
	if got := ArtifactName(1); got != "slot_0.mp4" {
		t.Fatalf("ArtifactName(1) = %q", got)
	}
	if got := (Slot{Index: 4}).ArtifactName(); got != "slot_3.mp4" {
		t.Fatalf("ArtifactName = %q", got)
	}
}

func TestSelectReturnsSlotOrder(t *testing.T) {
	p := Build("/w", Categorized{Video: []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4"}}, "")
	slots := p.Select([]int{5, 1, 3})
	if len(slots) != 3 || slots[0].Index != 1 || slots[1].Index != 3 || slots[2].Index != 5 {
		t.Fatalf("selection out of slot order: %+v", slots)
	}
}
