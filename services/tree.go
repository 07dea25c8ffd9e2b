package services

import "codesync/models"

// BuildFileTree converts a flat, unordered record list into rooted trees.
// Sibling order is the order records arrive in (the store lists by creation
// time); nothing is re-sorted. A record whose parent reference is missing or
// points at a file surfaces as a root node instead of disappearing, so a
// referential error in the store never hides data.
//
// The input is copied, never mutated; calling twice on the same list yields
// structurally identical trees.
func BuildFileTree(flat []models.FileNode) []*models.FileNode {
	nodeMap := make(map[string]*models.FileNode, len(flat))
	ordered := make([]*models.FileNode, 0, len(flat))

	for i := range flat {
		node := flat[i]
		node.Children = nil
		if node.IsFolder() {
			node.Children = []*models.FileNode{}
		}
		nodeMap[node.ID] = &node
		ordered = append(ordered, &node)
	}

	var roots []*models.FileNode
	for _, node := range ordered {
		if node.ParentID == "" || node.ParentID == models.RootParentID {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodeMap[node.ParentID]
		if !ok || !parent.IsFolder() {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

// FindNodeByID walks the reconstructed tree depth first.
func FindNodeByID(id string, roots []*models.FileNode) *models.FileNode {
	for _, node := range roots {
		if node.ID == id {
			return node
		}
		if found := FindNodeByID(id, node.Children); found != nil {
			return found
		}
	}
	return nil
}

// ComputePath joins the ancestor names from root to the node with "/".
// Returns "" when the id is not present in the tree.
func ComputePath(id string, roots []*models.FileNode) string {
	for _, node := range roots {
		if node.ID == id {
			return node.Name
		}
		if sub := ComputePath(id, node.Children); sub != "" {
			return node.Name + "/" + sub
		}
	}
	return ""
}

// CollectDescendants returns the ids of every node underneath the given one,
// in depth-first order. The node itself is not included.
func CollectDescendants(id string, roots []*models.FileNode) []string {
	node := FindNodeByID(id, roots)
	if node == nil {
		return nil
	}
	var ids []string
	var walk func(children []*models.FileNode)
	walk = func(children []*models.FileNode) {
		for _, child := range children {
			ids = append(ids, child.ID)
			walk(child.Children)
		}
	}
	walk(node.Children)
	return ids
}

// IsDescendant reports whether candidate sits anywhere underneath ancestor.
// Used to reject reparenting a folder under its own subtree.
func IsDescendant(ancestorID, candidateID string, roots []*models.FileNode) bool {
	ancestor := FindNodeByID(ancestorID, roots)
	if ancestor == nil {
		return false
	}
	return FindNodeByID(candidateID, ancestor.Children) != nil
}
