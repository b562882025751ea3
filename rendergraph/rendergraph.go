// Package rendergraph declares the render-graph node and compilation
// surface design-level only, grounded on original_source's
// rafx-resources/src/graph/graph_{buffer,pass}.rs and renderer-assets/
// src/graph/graph_{image,node}.rs. Graph compilation (pass scheduling,
// barrier insertion, transient resource aliasing) is explicitly out of
// scope for this module (spec §1 Non-goals: "a render graph compiler");
// these types exist so the job pipeline driver and resource caches have
// a stable shape to eventually plug a compiler into, without the driver
// ever calling Compile.
package rendergraph

import "github.com/renderframe/corepipeline/core"

// NodeID addresses one pass or resource node within a Graph.
type NodeID uint32

// ImageNode is a transient or imported image resource in the graph.
type ImageNode struct {
	ID       NodeID
	Name     string
	Imported bool
}

// BufferNode is a transient or imported buffer resource in the graph.
type BufferNode struct {
	ID       NodeID
	Name     string
	Imported bool
}

// PassNode is one render pass in the graph: the images/buffers it reads
// and writes, by node id.
type PassNode struct {
	ID      NodeID
	Name    string
	Reads   []NodeID
	Writes  []NodeID
}

// Graph accumulates pass and resource nodes before compilation.
type Graph struct {
	images  []ImageNode
	buffers []BufferNode
	passes  []PassNode
	nextID  NodeID
}

func NewGraph() *Graph {
	return &Graph{}
}

func (g *Graph) AddImage(name string, imported bool) NodeID {
	id := g.nextID
	g.nextID++
	g.images = append(g.images, ImageNode{ID: id, Name: name, Imported: imported})
	return id
}

func (g *Graph) AddBuffer(name string, imported bool) NodeID {
	id := g.nextID
	g.nextID++
	g.buffers = append(g.buffers, BufferNode{ID: id, Name: name, Imported: imported})
	return id
}

func (g *Graph) AddPass(name string, reads, writes []NodeID) NodeID {
	id := g.nextID
	g.nextID++
	g.passes = append(g.passes, PassNode{ID: id, Name: name, Reads: reads, Writes: writes})
	return id
}

// CompiledGraph is the scheduled, barrier-annotated form a compiler would
// produce. Left empty: no compiler exists yet.
type CompiledGraph struct {
	OrderedPasses []NodeID
}

// Compile is unimplemented. The job pipeline driver never calls it;
// passes are currently ordered by registration order elsewhere
// (renderfeatures.Registry), not by graph analysis.
func (g *Graph) Compile() (*CompiledGraph, error) {
	return nil, core.ErrNotImplemented
}
