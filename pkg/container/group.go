package container

// Group is a named collection of sub-groups and datasets.
//
// Entries keep insertion order, so encoding a Group is deterministic.
type Group struct {
	order    []string
	groups   map[string]*Group
	datasets map[string]*Dataset
}

func NewGroup() *Group {
	return &Group{
		groups:   map[string]*Group{},
		datasets: map[string]*Dataset{},
	}
}

// Names returns entry names in insertion order.
func (g *Group) Names() []string {
	return g.order
}

func (g *Group) Group(name string) (*Group, bool) {
	sub, ok := g.groups[name]
	return sub, ok
}

func (g *Group) Dataset(name string) (*Dataset, bool) {
	d, ok := g.datasets[name]
	return d, ok
}

// PutGroup creates (or returns the existing) sub-group `name`.
//
// A dataset holding that name is replaced.
func (g *Group) PutGroup(name string) *Group {
	if sub, ok := g.groups[name]; ok {
		return sub
	}
	sub := NewGroup()
	g.put(name)
	delete(g.datasets, name)
	g.groups[name] = sub
	return sub
}

// Put stores dataset d as entry `name`, replacing any existing entry.
func (g *Group) Put(name string, d *Dataset) {
	g.put(name)
	delete(g.groups, name)
	g.datasets[name] = d
}

func (g *Group) put(name string) {
	if _, ok := g.groups[name]; ok {
		return
	}
	if _, ok := g.datasets[name]; ok {
		return
	}
	g.order = append(g.order, name)
}

func (g *Group) Equal(o *Group) bool {
	if g == nil || o == nil {
		return g == nil && o == nil
	}
	if len(g.order) != len(o.order) {
		return false
	}
	for i := range g.order {
		if g.order[i] != o.order[i] {
			return false
		}
	}
	for name, sub := range g.groups {
		osub, ok := o.groups[name]
		if !ok || !sub.Equal(osub) {
			return false
		}
	}
	for name, d := range g.datasets {
		od, ok := o.datasets[name]
		if !ok || !d.Equal(od) {
			return false
		}
	}
	return true
}
