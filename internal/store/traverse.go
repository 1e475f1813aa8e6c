package store

// TraverseResult holds BFS traversal results.
type TraverseResult struct {
	Root    *Node
	Visited []*NodeHop
}

// NodeHop is a node with its BFS hop distance.
type NodeHop struct {
	Node *Node
	Hop  int
}

type bfsQueue struct {
	nodeID int64
	hop    int
}

// BFS performs breadth-first traversal following edges of the given types.
// direction: "outbound" follows source->target, "inbound" follows
// target->source. maxDepth caps the BFS depth, maxResults caps total visited
// nodes so a dense graph cannot produce an unbounded result set.
func (s *Store) BFS(startNodeID int64, direction string, edgeTypes []string, maxDepth, maxResults int) (*TraverseResult, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxResults <= 0 {
		maxResults = 200
	}

	result := &TraverseResult{}
	visited := map[int64]int{startNodeID: 0} // nodeID -> hop

	if root, err := s.FindNodeByID(startNodeID); err == nil {
		result.Root = root
	}

	queue := []bfsQueue{{startNodeID, 0}}
	for len(queue) > 0 && len(result.Visited) < maxResults {
		item := queue[0]
		queue = queue[1:]

		if item.hop >= maxDepth {
			continue
		}

		for _, et := range edgeTypes {
			var edges []*Edge
			var err error
			if direction == "inbound" {
				edges, err = s.FindEdgesByTargetAndType(item.nodeID, et)
			} else {
				edges, err = s.FindEdgesBySourceAndType(item.nodeID, et)
			}
			if err != nil {
				return nil, err
			}

			for _, e := range edges {
				nextID := e.TargetID
				if direction == "inbound" {
					nextID = e.SourceID
				}
				if _, seen := visited[nextID]; seen {
					continue
				}
				visited[nextID] = item.hop + 1

				next, lookupErr := s.FindNodeByID(nextID)
				if lookupErr != nil || next == nil {
					continue
				}
				result.Visited = append(result.Visited, &NodeHop{Node: next, Hop: item.hop + 1})
				queue = append(queue, bfsQueue{nextID, item.hop + 1})

				if len(result.Visited) >= maxResults {
					return result, nil
				}
			}
		}
	}
	return result, nil
}
