package snapshot

// Visitor observes a snapshot tree. Directories are announced before their
// children and closed after them; returning false from PreVisitDirectory
// prunes the directory, so neither its children nor its PostVisitDirectory
// are delivered. Visitors must not retain or mutate what they are given
// beyond reading it.
type Visitor interface {
	PreVisitDirectory(dir *Node) bool
	VisitFile(file *Node)
	PostVisitDirectory(dir *Node)
}

// VisitorFuncs adapts plain functions to Visitor. Nil fields are no-ops; a
// nil PreVisitDirectory descends into every directory.
type VisitorFuncs struct {
	PreVisitDirectoryFunc  func(dir *Node) bool
	VisitFileFunc          func(file *Node)
	PostVisitDirectoryFunc func(dir *Node)
}

func (f VisitorFuncs) PreVisitDirectory(dir *Node) bool {
	if f.PreVisitDirectoryFunc == nil {
		return true
	}
	return f.PreVisitDirectoryFunc(dir)
}

func (f VisitorFuncs) VisitFile(file *Node) {
	if f.VisitFileFunc != nil {
		f.VisitFileFunc(file)
	}
}

func (f VisitorFuncs) PostVisitDirectory(dir *Node) {
	if f.PostVisitDirectoryFunc != nil {
		f.PostVisitDirectoryFunc(dir)
	}
}

// Accept walks the tree rooted at n in canonical order.
func (n *Node) Accept(v Visitor) {
	switch n.kind {
	case KindFile:
		v.VisitFile(n)
	case KindDirectory:
		if !v.PreVisitDirectory(n) {
			return
		}
		for _, c := range n.children {
			c.Accept(v)
		}
		v.PostVisitDirectory(n)
	}
}

// Accept walks every present root in stored order. Absent roots produce no
// calls.
func (c *Composite) Accept(v Visitor) {
	for _, r := range c.roots {
		if r.node != nil {
			r.node.Accept(v)
		}
	}
}
