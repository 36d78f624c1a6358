package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNodeNotFound      = errors.New("hierarchy node not found")
	ErrHierarchyCycle    = errors.New("hierarchy contains a cycle")
	ErrUnknownParentNode = errors.New("hierarchy node references unknown parent")
)

// HierarchyNode is one node of a parent/child tree such as the chart of account codes
// or the cost-center tree. Type is optional and inherited from the nearest ancestor.
type HierarchyNode struct {
	ID       string
	ParentID string
	Code     string
	Name     string
	Type     AccountType
}

// Hierarchy stores nodes by id. Parents are referenced by id only; the children
// index is built when first needed.
type Hierarchy struct {
	nodes    map[string]HierarchyNode
	children map[string][]string
}

// NewHierarchy validates that every parent exists and that no cycle is present.
func NewHierarchy(nodes []HierarchyNode) (*Hierarchy, error) {
	h := &Hierarchy{nodes: make(map[string]HierarchyNode, len(nodes))}
	for _, n := range nodes {
		h.nodes[n.ID] = n
	}

	for _, n := range nodes {
		if n.ParentID != "" {
			if _, ok := h.nodes[n.ParentID]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownParentNode, n.ID, n.ParentID)
			}
		}
		seen := map[string]bool{n.ID: true}
		for cur := n.ParentID; cur != ""; cur = h.nodes[cur].ParentID {
			if seen[cur] {
				return nil, fmt.Errorf("%w at %s", ErrHierarchyCycle, cur)
			}
			seen[cur] = true
		}
	}

	return h, nil
}

// Node returns the node with id.
func (h *Hierarchy) Node(id string) (HierarchyNode, error) {
	n, ok := h.nodes[id]
	if !ok {
		return HierarchyNode{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// Children returns the direct children of id ordered by code.
func (h *Hierarchy) Children(id string) []HierarchyNode {
	if h.children == nil {
		h.children = make(map[string][]string)
		for _, n := range h.nodes {
			if n.ParentID != "" {
				h.children[n.ParentID] = append(h.children[n.ParentID], n.ID)
			}
		}
	}

	ids := h.children[id]
	out := make([]HierarchyNode, 0, len(ids))
	for _, cid := range ids {
		out = append(out, h.nodes[cid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Ancestors returns the chain of parents of id, nearest first.
func (h *Hierarchy) Ancestors(id string) []HierarchyNode {
	var out []HierarchyNode
	for cur := h.nodes[id].ParentID; cur != ""; cur = h.nodes[cur].ParentID {
		out = append(out, h.nodes[cur])
	}
	return out
}

// ResolveType returns the account type of id or of its nearest typed ancestor.
func (h *Hierarchy) ResolveType(id string) (AccountType, error) {
	n, err := h.Node(id)
	if err != nil {
		return "", err
	}
	if n.Type != "" {
		return n.Type, nil
	}
	for _, a := range h.Ancestors(id) {
		if a.Type != "" {
			return a.Type, nil
		}
	}
	return "", fmt.Errorf("account code %s has no account type", id)
}
