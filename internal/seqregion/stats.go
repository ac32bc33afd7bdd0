package seqregion

import (
	"fmt"
	"math"
	"path/filepath"
)

// Group holds the lengths of all regions sharing one coord_system level.
type Group struct {
	Level   string
	Lengths []int64
}

// Summary holds the numeric summary of a group.
type Summary struct {
	Count int
	Sum   int64
	Min   int64
	Mean  float64
	Max   int64
}

// Summary computes count, sum, min, mean and max of the group's lengths.
// Groups are never empty: one is only created when a region is added.
func (g *Group) Summary() Summary {
	s := Summary{
		Count: len(g.Lengths),
		Min:   g.Lengths[0],
		Max:   g.Lengths[0],
	}
	for _, l := range g.Lengths {
		s.Sum += l
		s.Min = min(s.Min, l)
		s.Max = max(s.Max, l)
	}
	s.Mean = float64(s.Sum) / float64(s.Count)
	return s
}

// Stats is the analysis of one seq_region file.
type Stats struct {
	Source      string
	Groups      []*Group
	Circular    int
	Locations   []string
	CodonTables []string
}

// Analyze groups regions by coord_system level (first-seen order) and
// collects the special attributes.
func Analyze(source string, regions []Region) *Stats {
	s := &Stats{Source: source}
	byLevel := make(map[string]*Group)

	for i := range regions {
		r := &regions[i]
		name := r.DisplayName()

		g, ok := byLevel[r.CoordSystemLevel]
		if !ok {
			g = &Group{Level: r.CoordSystemLevel}
			byLevel[r.CoordSystemLevel] = g
			s.Groups = append(s.Groups, g)
		}
		g.Lengths = append(g.Lengths, r.Length)

		if r.Circular {
			s.Circular++
		}
		if r.CodonTable != nil {
			s.CodonTables = append(s.CodonTables, fmt.Sprintf("%s = %s", name, *r.CodonTable))
		}
		if r.Location != nil {
			s.Locations = append(s.Locations, fmt.Sprintf("%s = %s", name, *r.Location))
		}
	}

	return s
}

// Lines renders the report section.
func (s *Stats) Lines() []string {
	lines := []string{
		s.Source,
		fmt.Sprintf("Total coord_systems %d", len(s.Groups)),
	}

	for _, g := range s.Groups {
		sum := g.Summary()
		lines = append(lines,
			"\nCoord_system: "+g.Level,
			countLine(int64(sum.Count), "Number of sequences"),
			countLine(sum.Sum, "Sequence length sum"),
			countLine(sum.Min, "Sequence length minimum"),
			countLine(int64(math.Trunc(sum.Mean)), "Sequence length mean"),
			countLine(sum.Max, "Sequence length maximum"),
		)
	}

	// Codon tables are only listed alongside circular or located sequences.
	if s.Circular > 0 || len(s.Locations) > 0 {
		lines = append(lines, "\nSpecial")
		if s.Circular > 0 {
			lines = append(lines, countLine(int64(s.Circular), "circular sequences"))
		}
		if len(s.Locations) > 0 {
			lines = append(lines, countLine(int64(len(s.Locations)), "sequences with location"))
			lines = appendListed(lines, s.Locations)
		}
		if len(s.CodonTables) > 0 {
			lines = append(lines, countLine(int64(len(s.CodonTables)), "sequences with codon_table"))
			lines = appendListed(lines, s.CodonTables)
		}
	}

	return append(lines, "\n")
}

func countLine(n int64, label string) string {
	return fmt.Sprintf("%9d\t%s", n, label)
}

func appendListed(lines, items []string) []string {
	for _, item := range items {
		lines = append(lines, "\t\t\t"+item)
	}
	return lines
}

// AnalyzeFile loads a seq_region JSON file and renders its report section,
// headed by the file's base name.
func AnalyzeFile(path string) ([]string, error) {
	regions, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Analyze(filepath.Base(path), regions).Lines(), nil
}
