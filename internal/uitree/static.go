package uitree

// Static is an in-memory Node used by snapshot bridges and tests. Trees are
// built literally:
//
//	root := &uitree.Static{
//	    Attributes: uitree.Attributes{Class: "FrameLayout"},
//	    Children: []*uitree.Static{
//	        {Attributes: uitree.Attributes{Class: "Button", Text: "Submit", Clickable: true, Enabled: true}},
//	    },
//	}
type Static struct {
	Attributes
	Children []*Static
}

// Attrs implements Node.
func (s *Static) Attrs() Attributes { return s.Attributes }

// ChildCount implements Node.
func (s *Static) ChildCount() int { return len(s.Children) }

// Child implements Node.
func (s *Static) Child(i int) Node { return s.Children[i] }

// AddChild appends a child and returns it, for incremental tree builders.
func (s *Static) AddChild(attrs Attributes) *Static {
	c := &Static{Attributes: attrs}
	s.Children = append(s.Children, c)
	return c
}
