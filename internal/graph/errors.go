package graph

import "errors"

var (
	// ErrDuplicateNode is returned by AddNode when the node id is taken.
	ErrDuplicateNode = errors.New("node id already exists")

	// ErrDuplicateEdge is returned by AddEdge when the edge id is taken.
	ErrDuplicateEdge = errors.New("edge id already exists")

	// ErrUnknownEndpoint is returned by AddEdge when source or target is
	// not a known node.
	ErrUnknownEndpoint = errors.New("edge endpoint does not exist")

	// ErrNodeNotFound is returned by operations referencing a missing node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound is returned by operations referencing a missing edge.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrCorruptStore is wrapped by Decode/Load when a snapshot exists but
	// cannot be parsed into a valid graph.
	ErrCorruptStore = errors.New("corrupt graph snapshot")

	// ErrPersistence is wrapped by Save when writing the snapshot fails.
	ErrPersistence = errors.New("persist graph snapshot")
)
