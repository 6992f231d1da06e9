package store

// Project is a filesystem path scoping a set of plans.
type Project struct {
	ID   int64
	Path string
}

// Plan is a named tree of nodes inside a project.
type Plan struct {
	ID          int64
	ProjectID   int64
	Name        string
	Summary     string
	NextLocalID int64
}

// PlanSummary is a plan together with node counts, for listings.
type PlanSummary struct {
	Plan
	Nodes int
	Done  int
}

// Node is one row of the nodes table. ParentID is 0 for root nodes.
type Node struct {
	ID          int64
	PlanID      int64
	ParentID    int64
	LocalID     int64
	Title       string
	Description string
	Done        bool
	Position    int64
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == 0
}
