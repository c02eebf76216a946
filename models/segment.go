package models

import (
	"sort"
)

// SegmentData is one loadable region of an image, at its link address.
type SegmentData struct {
	Off        uint64
	Addr, Size uint64
	Prot       int
	DataFunc   func() ([]byte, error)
}

func (s *SegmentData) Data() ([]byte, error) {
	return s.DataFunc()
}

// ContainsPhys reports whether file offset off falls in the segment.
func (s *SegmentData) ContainsPhys(off uint64) bool {
	return off >= s.Off && off-s.Off < s.Size
}

// Segment is a page-aligned span to map, [Start, End).
type Segment struct {
	Start, End uint64
	Prot       int
}

func (s *Segment) Overlaps(o *Segment) bool {
	return s.Start < o.End && o.Start < s.End
}

// MergeSegments page-aligns each non-empty segment and coalesces any that
// overlap, joining their protections. The result is sorted by address.
func MergeSegments(segs []SegmentData, align func(addr, size uint64) (uint64, uint64)) []*Segment {
	var merged []*Segment
	for _, seg := range segs {
		if seg.Size == 0 {
			continue
		}
		addr, size := align(seg.Addr, seg.Size)
		cur := &Segment{Start: addr, End: addr + size, Prot: seg.Prot}
		keep := merged[:0]
		for _, m := range merged {
			if m.Overlaps(cur) {
				cur.Start, cur.End = min(cur.Start, m.Start), max(cur.End, m.End)
				cur.Prot |= m.Prot
			} else {
				keep = append(keep, m)
			}
		}
		merged = append(keep, cur)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })
	return merged
}
