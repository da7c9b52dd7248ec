// Package graph derives the supplier dependency graph from the store and
// propagates risk scores through it. The graph is never persisted; it is
// rebuilt on demand and cached per topology version.
package graph

import (
	"strings"

	"github.com/chainwatch/chainwatch/pkg/models"
)

// defaultVulnerability applies when a node carries no mitigation score,
// which makes the amplification factor (0.5 + vulnerability) exactly 1.0.
const defaultVulnerability = 0.5

// Node is a vertex in the dependency graph: the company or one supplier.
type Node struct {
	ID            string
	Name          string
	IsCompany     bool
	Vulnerability float64
}

// Edge points from an upstream node toward the company, weighted by the
// share of the target's demand the source covers.
type Edge struct {
	From   string
	To     string
	Weight float64 // [0,1]
}

// Graph is a directed dependency graph with edges oriented upstream to
// downstream (toward the company).
type Graph struct {
	nodes  map[string]*Node
	out    map[string][]Edge
	byName map[string]string // lowercase display name -> node ID
}

// Build constructs the graph from the company profile and the supplier
// collection. Tier-1 suppliers feed the company directly; deeper tiers
// connect through the upstream descriptors on each supplier, matched by
// display name. Suppliers referenced nowhere stay disconnected.
func Build(company *models.Company, suppliers []*models.Supplier) *Graph {
	g := &Graph{
		nodes:  make(map[string]*Node, len(suppliers)+1),
		out:    make(map[string][]Edge),
		byName: make(map[string]string, len(suppliers)),
	}

	g.nodes[company.ID] = &Node{
		ID:            company.ID,
		Name:          company.Name,
		IsCompany:     true,
		Vulnerability: defaultVulnerability,
	}

	for _, s := range suppliers {
		g.nodes[s.ID] = &Node{
			ID:            s.ID,
			Name:          s.Name,
			Vulnerability: defaultVulnerability,
		}
		g.byName[strings.ToLower(s.Name)] = s.ID
	}

	for _, s := range suppliers {
		if s.Tier <= 1 {
			g.addEdge(s.ID, company.ID, s.SupplyVolumePct/100)
		}
		for _, up := range s.Upstream {
			if fromID, ok := g.byName[strings.ToLower(up.Name)]; ok {
				g.addEdge(fromID, s.ID, up.SupplyVolumePct/100)
			}
		}
	}

	return g
}

func (g *Graph) addEdge(from, to string, weight float64) {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	g.out[from] = append(g.out[from], Edge{From: from, To: to, Weight: weight})
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDByName resolves a display name to a node ID, case-insensitively.
func (g *Graph) NodeIDByName(name string) (string, bool) {
	id, ok := g.byName[strings.ToLower(name)]
	return id, ok
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Propagate runs a breadth-first traversal from the originating node
// toward the company. Each edge u -> v with weight w records
// propagated_u * w * (0.5 + vulnerability_v) at v when that strictly
// improves on v's previous value. Nodes are re-enqueued only on strict
// improvement and only while their score exceeds the threshold, which
// bounds the traversal even on cyclic input. The returned map holds every
// node the traversal touched, origin and company node included.
func (g *Graph) Propagate(originID string, score, threshold float64) map[string]float64 {
	scores := make(map[string]float64)
	if _, ok := g.nodes[originID]; !ok {
		return scores
	}

	scores[originID] = score
	queue := []string{}
	if score > threshold {
		queue = append(queue, originID)
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, e := range g.out[u] {
			target := g.nodes[e.To]
			propagated := scores[u] * e.Weight * (0.5 + target.Vulnerability)
			if propagated <= scores[e.To] {
				continue
			}
			scores[e.To] = propagated
			if propagated > threshold {
				queue = append(queue, e.To)
			}
		}
	}

	return scores
}
