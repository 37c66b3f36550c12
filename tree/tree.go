// Package tree implements phylogenetic trees. A tree owns its nodes;
// parent pointers are only used for lookups.
package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTree is returned for malformed topologies.
var ErrInvalidTree = errors.New("invalid tree")

// maxChildren is the maximum number of children of a non-root node.
// The root may have one more (an unrooted trifurcation).
const maxChildren = 2

// Tree is a rooted tree. It embeds the root node and caches node
// arrays, which are computed on the first request.
type Tree struct {
	*Node
	nNodes    int
	nodes     []*Node
	leaves    []*Node
	nodeOrder []*Node
}

// New creates a tree from the root node. Node ids are assigned in
// pre-order, leaf ids are assigned to terminal nodes in the same
// order.
func New(root *Node) *Tree {
	root.Parent = nil
	t := &Tree{Node: root}
	t.renumber()
	return t
}

// renumber assigns node and leaf ids and drops the caches.
func (tree *Tree) renumber() {
	nodeID, leafID := 0, 0
	var rec func(*Node)
	rec = func(node *Node) {
		node.Id = nodeID
		nodeID++
		if node.IsTerminal() {
			node.LeafId = leafID
			leafID++
		} else {
			node.LeafId = -1
		}
		for _, child := range node.childNodes {
			rec(child)
		}
	}
	rec(tree.Node)
	tree.ClearCache()
}

// ClearCache drops all the cached node arrays.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
	tree.leaves = nil
	tree.nodeOrder = nil
}

// NNodes returns the number of nodes.
func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns all the nodes indexed by their id.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.nodes[node.Id] = node
		}
	}
	return tree.nodes
}

// Leaves returns terminal nodes indexed by their leaf id.
func (tree *Tree) Leaves() []*Node {
	if tree.leaves == nil {
		tree.leaves = make([]*Node, 0, tree.NNodes())
		for node := range tree.Terminals() {
			tree.leaves = append(tree.leaves, node)
		}
	}
	return tree.leaves
}

// Terminals returns a channel with all the terminal nodes.
func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(n *Node) bool {
		return n.IsTerminal()
	})
}

// NonTerminals returns a channel with all the internal nodes.
func (tree *Tree) NonTerminals() <-chan *Node {
	return tree.Walker(func(n *Node) bool {
		return !n.IsTerminal()
	})
}

// NLeaves returns the number of leaves.
func (tree *Tree) NLeaves() int {
	return len(tree.Leaves())
}

// Walker returns a buffered channel with all the nodes passing the
// filter in pre-order.
func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Copy creates independent copy of the tree.
func (tree *Tree) Copy() (newTree *Tree) {
	nNodes := tree.NNodes()
	newTree = &Tree{
		nNodes: nNodes,
		nodes:  make([]*Node, nNodes),
	}

	for i, node := range tree.Nodes() {
		if i != node.Id {
			panic("node id mismatch")
		}
		newTree.nodes[i] = node.Copy()
	}

	// Rewire node/parent connections.
	for i, node := range tree.Nodes() {
		newNode := newTree.nodes[i]
		for _, child := range node.childNodes {
			newNode.AddChild(newTree.nodes[child.Id])
		}
	}

	newTree.Node = newTree.nodes[tree.Node.Id]
	return
}

// NodeOrder returns the internal nodes in post-order, i.e. every node
// comes after all of its children. The root is the last node.
func (tree *Tree) NodeOrder() []*Node {
	if tree.nodeOrder == nil {
		tree.nodeOrder = make([]*Node, 0, tree.NNodes())
		var rec func(*Node)
		rec = func(node *Node) {
			for _, child := range node.childNodes {
				rec(child)
			}
			if !node.IsTerminal() {
				tree.nodeOrder = append(tree.nodeOrder, node)
			}
		}
		rec(tree.Node)
	}
	return tree.nodeOrder
}

// Validate checks the topology: there should be at least one leaf,
// branch lengths should be non-negative, leaf names unique and the
// number of children limited.
func (tree *Tree) Validate() error {
	if tree.Node == nil {
		return fmt.Errorf("%w: no root", ErrInvalidTree)
	}
	if tree.NLeaves() == 0 {
		return fmt.Errorf("%w: no leaves", ErrInvalidTree)
	}
	names := make(map[string]bool, tree.NLeaves())
	for _, node := range tree.Nodes() {
		if node.BranchLength < 0 {
			return fmt.Errorf("%w: negative branch length for node %d", ErrInvalidTree, node.Id)
		}
		limit := maxChildren
		if node.IsRoot() {
			limit++
		}
		if len(node.childNodes) > limit {
			return fmt.Errorf("%w: node %d has %d children", ErrInvalidTree, node.Id, len(node.childNodes))
		}
		if node.IsTerminal() {
			if names[node.Name] {
				return fmt.Errorf("%w: duplicate leaf name %q", ErrInvalidTree, node.Name)
			}
			names[node.Name] = true
		}
	}
	return nil
}

// Node is a tree node. Leaves correspond to the observed sequences.
type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	Id           int
	LeafId       int
}

// NewLeaf creates a terminal node.
func NewLeaf(name string, branchLength float64) *Node {
	return &Node{Name: name, BranchLength: branchLength}
}

// NewInternal creates an internal node with the given children.
func NewInternal(branchLength float64, children ...*Node) *Node {
	node := &Node{BranchLength: branchLength}
	for _, child := range children {
		node.AddChild(child)
	}
	return node
}

// Copy creates copy of node with empty parent and children.
func (node *Node) Copy() *Node {
	return &Node{
		Name:         node.Name,
		BranchLength: node.BranchLength,
		childNodes:   make([]*Node, 0, len(node.childNodes)),
		Id:           node.Id,
		LeafId:       node.LeafId,
	}
}

// AddChild adds a child node.
func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

// ChildNodes returns the children.
func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

// Walk sends all the nodes passing the filter to the channel.
func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

// NSubNodes returns the number of nodes in the subtree.
func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

// IsRoot is true for a node without a parent.
func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

// IsTerminal is true for a node without children.
func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}

// String returns the subtree in the newick format.
func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += fmt.Sprintf("):%0.6f", node.BranchLength)
	if node.IsRoot() {
		s += ";"
	}
	return s
}

// LongString returns a one-line description of the node.
func (node *Node) LongString() (s string) {
	s = "<"
	if node.Parent == nil {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("Id=%v, BranchLength=%v", node.Id, node.BranchLength)
	if node.IsTerminal() {
		s += fmt.Sprintf(", LeafId=%v", node.LeafId)
	}
	s += ">"
	return
}

// FullString returns an indented description of the subtree.
func (node *Node) FullString() string {
	return strings.TrimSpace(node.prefixString(""))
}

func (node *Node) prefixString(prefix string) (s string) {
	s = prefix + node.LongString() + "\n"
	for _, node := range node.childNodes {
		s += node.prefixString(prefix + "    ")
	}
	return
}
