package web

import "strings"

// node 是路由前缀树节点。静态 part（如 "api"）优先于模糊 part（":code"、"*rest"）。
type node struct {
	pattern  string  // 完整路由，只有叶子节点非空，如 /r/:code
	part     string  // 当前层的片段，如 :code
	children []*node
	isWild   bool // part 以 : 或 * 开头
}

// matchChild 第一个精确匹配的子节点，用于插入。
func (n *node) matchChild(part string) *node {
	for _, child := range n.children {
		if child.part == part {
			return child
		}
	}
	return nil
}

// matchChildren 所有可匹配的子节点，用于查找。
// 静态节点排在模糊节点之前，保证 /healthz 不被 /:code 抢占。
func (n *node) matchChildren(part string) []*node {
	nodes := make([]*node, 0)
	for _, child := range n.children {
		if child.part == part {
			nodes = append(nodes, child)
		}
	}
	for _, child := range n.children {
		if child.isWild {
			nodes = append(nodes, child)
		}
	}
	return nodes
}

func (n *node) insert(pattern string, parts []string, height int) {
	if len(parts) == height {
		n.pattern = pattern
		return
	}
	part := parts[height]
	child := n.matchChild(part)
	if child == nil {
		child = &node{
			part:   part,
			isWild: part[0] == ':' || part[0] == '*',
		}
		n.children = append(n.children, child)
	}
	child.insert(pattern, parts, height+1)
}

func (n *node) search(parts []string, height int) *node {
	if len(parts) == height || strings.HasPrefix(n.part, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}

	part := parts[height]
	for _, child := range n.matchChildren(part) {
		if result := child.search(parts, height+1); result != nil {
			return result
		}
	}
	return nil
}
