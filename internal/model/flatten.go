package model

// FlatControl is a tree node with its structural path instead of children.
type FlatControl struct {
	Handle ControlHandle `yaml:"handle"         json:"handle"`
	Depth  int           `yaml:"depth"          json:"depth"`
	Path   []int         `yaml:"path,flow"      json:"path"`
	Text   string        `yaml:"text,omitempty" json:"text,omitempty"`
}

// Flatten lists the tree in preorder. The root is reported with an empty path.
func (t *ControlTree) Flatten() []FlatControl {
	var result []FlatControl
	t.flattenRecursive(0, nil, &result)
	return result
}

func (t *ControlTree) flattenRecursive(node int, path []int, result *[]FlatControl) {
	*result = append(*result, FlatControl{
		Handle: t.Nodes[node].Handle,
		Depth:  len(path),
		Path:   append([]int{}, path...),
	})
	for i, child := range t.Nodes[node].Children {
		t.flattenRecursive(child, append(path, i), result)
	}
}
