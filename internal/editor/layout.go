package editor

import "sort"

// LayoutKind selects how sections are presented.  Both kinds drive the same
// state machine; they only differ in which section has focus.
type LayoutKind string

const (
	// LayoutAccordion shows one section open at a time, toggled manually.
	LayoutAccordion LayoutKind = "accordion"
	// LayoutSplitView renders every section with a scroll-spy navigation.
	LayoutSplitView LayoutKind = "split_view"
)

// ParseLayout maps a request value to a layout, defaulting to accordion.
func ParseLayout(s string) LayoutKind {
	if LayoutKind(s) == LayoutSplitView {
		return LayoutSplitView
	}
	return LayoutAccordion
}

// ScrollSpyOffset is how far below the viewport top a section heading may
// sit and still count as the current section.
const ScrollSpyOffset = 96

// SectionOffset is the rendered vertical position of a section heading.
type SectionOffset struct {
	ID  SectionID `json:"id"`
	Top int       `json:"top"`
}

// Layout tracks the focused section for a presentation.
type Layout struct {
	Kind   LayoutKind
	Open   SectionID // accordion only
	Active SectionID // split view only
}

// Toggle opens id, or closes it when it is already open.
func (l *Layout) Toggle(id SectionID) error {
	if l.Kind != LayoutAccordion {
		return ErrLayoutMismatch
	}
	if l.Open == id {
		l.Open = ""
	} else {
		l.Open = id
	}
	return nil
}

// Spy picks the section whose heading is the last one at or above the
// viewport top (plus ScrollSpyOffset).  Before the first heading, the first
// section is active.
func (l *Layout) Spy(offsets []SectionOffset, scrollTop int) (SectionID, error) {
	if l.Kind != LayoutSplitView {
		return "", ErrLayoutMismatch
	}
	if len(offsets) == 0 {
		return l.Active, nil
	}
	sorted := append([]SectionOffset(nil), offsets...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Top < sorted[j].Top })
	active := sorted[0].ID
	for _, o := range sorted {
		if o.Top <= scrollTop+ScrollSpyOffset {
			active = o.ID
			continue
		}
		break
	}
	l.Active = active
	return active, nil
}
