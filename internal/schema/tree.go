package schema

// PayloadKind names the mutually exclusive payload a step carries.
type PayloadKind string

const (
	PayloadMessagePopup PayloadKind = "messagePopup"
	PayloadBoolean      PayloadKind = "booleanMeas"
	PayloadString       PayloadKind = "stringMeas"
	PayloadNumeric      PayloadKind = "numericMeas"
	PayloadCallExe      PayloadKind = "callExe"
	PayloadSeqCall      PayloadKind = "seqCall"
)

// PayloadKinds lists the payload fields in the order conflicts are detected.
var PayloadKinds = []PayloadKind{
	PayloadMessagePopup, PayloadBoolean, PayloadString, PayloadNumeric, PayloadCallExe, PayloadSeqCall,
}

// Walk visits s and its descendants depth-first in pre-order.
// Returning false from fn stops the walk below that node.
func (s *Step) Walk(fn func(*Step) bool) {
	if !fn(s) {
		return
	}
	for i := range s.Steps {
		s.Steps[i].Walk(fn)
	}
}

// AssignIDs numbers the tree in pre-order starting at 0 and returns the node count.
func (s *Step) AssignIDs() int {
	next := 0
	s.Walk(func(n *Step) bool {
		n.ID = next
		next++
		return true
	})
	return next
}

// Count returns the number of steps in the tree rooted at s.
func (s *Step) Count() int {
	n := 0
	s.Walk(func(*Step) bool { n++; return true })
	return n
}
