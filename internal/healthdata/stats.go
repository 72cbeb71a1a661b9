package healthdata

// Stats tallies what a document contained. It is diagnostic only.
type Stats struct {
	Nodes       int
	Tags        map[string]int
	Fields      map[string]int
	RecordTypes map[string]int
	OtherTypes  map[string]int
}

// CollectStats counts tags, attribute names, Record types and the
// ActivitySummary/Workout tags over abbreviated nodes.
func CollectStats(nodes []Node) Stats {
	s := Stats{
		Nodes:       len(nodes),
		Tags:        make(map[string]int),
		Fields:      make(map[string]int),
		RecordTypes: make(map[string]int),
		OtherTypes:  make(map[string]int),
	}
	for _, n := range nodes {
		s.Tags[n.Tag]++
		for _, a := range n.Attrs {
			s.Fields[a.Name]++
		}
		switch n.Tag {
		case TagRecord:
			if typ, ok := n.Get("type"); ok {
				s.RecordTypes[typ]++
			}
		case TagActivitySummary, TagWorkout:
			s.OtherTypes[n.Tag]++
		}
	}
	return s
}
