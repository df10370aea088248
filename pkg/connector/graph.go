package connector

import "fmt"

// GraphNode is one vertex in a case's narrative graph.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphEdge links two graph nodes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Graph is the account/platform/entity/narrative view of a case's items.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// BuildGraph derives the narrative graph from a case's items. Nodes are
// deduplicated by id, edges are emitted once per item relation.
func BuildGraph(items []ContentItem) Graph {
	graph := Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	seen := make(map[string]bool)

	addNode := func(id, label, nodeType string) {
		if seen[id] {
			return
		}
		seen[id] = true
		graph.Nodes = append(graph.Nodes, GraphNode{ID: id, Label: label, Type: nodeType})
	}

	for _, item := range items {
		accountNode := fmt.Sprintf("acct:%s", item.Author)
		platformNode := fmt.Sprintf("platform:%s", item.Platform)
		addNode(accountNode, item.Author, "account")
		addNode(platformNode, string(item.Platform), "platform")
		graph.Edges = append(graph.Edges, GraphEdge{Source: accountNode, Target: platformNode, Type: "posts_on"})

		for _, entity := range item.Entities {
			entityNode := fmt.Sprintf("entity:%s", entity)
			addNode(entityNode, entity, "entity")
			graph.Edges = append(graph.Edges, GraphEdge{Source: accountNode, Target: entityNode, Type: "mentions"})
		}

		if item.NarrativeKey != "" {
			narrativeNode := fmt.Sprintf("narrative:%s", item.NarrativeKey)
			addNode(narrativeNode, item.NarrativeKey, "narrative")
			graph.Edges = append(graph.Edges, GraphEdge{Source: accountNode, Target: narrativeNode, Type: "amplifies"})
		}
	}

	return graph
}
