// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alignment

// Mapping is a one-sided projection of an alignment: the ordered
// blocks an alignment covers on a single coordinate system. It is the
// form consumed by gene and transcript serializers.
type Mapping struct {
	// Name is the name of the mapped feature, the query name for
	// projections of an alignment.
	Name string

	// RefName names the coordinate system of Exons.
	RefName string

	Direction Direction

	// Exons holds the covered intervals in increasing order.
	Exons []Block
}

// ReferenceMap returns the projection of a onto its reference.
func ReferenceMap(a Alignment) *Mapping {
	_, r := a.Blocks()
	return &Mapping{
		Name:      a.QueryName(),
		RefName:   a.ReferenceName(),
		Direction: a.Direction(),
		Exons:     append([]Block(nil), r...),
	}
}

// QueryMap returns the projection of a onto its query. Coordinates are
// on the aligned strand of the query.
func QueryMap(a Alignment) *Mapping {
	q, _ := a.Blocks()
	return &Mapping{
		Name:      a.QueryName(),
		RefName:   a.QueryName(),
		Direction: a.Direction(),
		Exons:     append([]Block(nil), q...),
	}
}

// Start returns the start of the first exon.
func (m *Mapping) Start() int {
	if len(m.Exons) == 0 {
		return 0
	}
	return m.Exons[0].Start
}

// End returns the end of the last exon.
func (m *Mapping) End() int {
	if len(m.Exons) == 0 {
		return 0
	}
	return m.Exons[len(m.Exons)-1].End
}

// Length returns the total length of the exons.
func (m *Mapping) Length() int {
	var n int
	for _, e := range m.Exons {
		n += e.Len()
	}
	return n
}

// ExonCount returns the number of exons.
func (m *Mapping) ExonCount() int { return len(m.Exons) }

// Smooth returns a copy of m with exons separated by gaps of at most
// minIntron bases joined.
func (m *Mapping) Smooth(minIntron int) *Mapping {
	s := *m
	s.Exons = nil
	for i, e := range m.Exons {
		if i != 0 && e.Start-s.Exons[len(s.Exons)-1].End <= minIntron {
			s.Exons[len(s.Exons)-1].End = e.End
			continue
		}
		s.Exons = append(s.Exons, e)
	}
	return &s
}

// Overlaps returns whether any exon of m overlaps an exon of o on the
// same coordinate system. If sameDirection is true the mappings must
// also share a direction.
func (m *Mapping) Overlaps(o *Mapping, sameDirection bool) bool {
	if m.RefName != o.RefName {
		return false
	}
	if sameDirection && m.Direction != o.Direction {
		return false
	}
	for _, a := range m.Exons {
		for _, b := range o.Exons {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}
