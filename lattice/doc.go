// Package lattice builds the population graph on which EEMS runs: a
// connected, undirected lattice of demes covering the habitat, with every
// sample assigned to its nearest deme.
//
// What:
//
//   - Triangular: a regular triangular lattice sized from a target deme
//     density, clipped to the habitat (a node is kept if it is inside, an
//     edge is kept if both ends are inside).
//   - Load: a pre-built lattice read from <gridpath>.demes and
//     <gridpath>.edges (1-based indices, duplicates in either orientation
//     dropped).
//   - CheckConnected: the lattice must be a single connected component;
//     otherwise a *DisconnectedGraphError is returned.
//   - Assign: each sample goes to the Euclidean-nearest deme (first minimum wins).
//   - Reindex: observed demes take indices [0,oDemes) in the order their
//     samples are first met, unobserved demes take [oDemes,nDemes) in their
//     original order.
//
// Why reindex:
//
//	The likelihood partitions the nDemes×nDemes Laplacian into observed and
//	unobserved blocks and marginalizes the unobserved block with a Schur
//	complement. Contiguous blocks turn that into a sub-matrix slice.
//
// Pipeline (Build):
//
//	Constructor → CheckConnected → Assign → Reindex → *Graph
//
//	A disconnected lattice aborts the pipeline before sample assignment, so
//	no lattice output can be written for it.
//
// Complexity:
//
//   - Triangular: O(X·Y) for an X×Y candidate lattice.
//   - Load: O(E) with a set of canonical pairs for duplicate detection.
//   - CheckConnected: O(V + E).
//   - Assign: O(n·V) for n samples.
//
// Errors:
//
//   - ErrEmptyLattice     no deme falls inside the habitat.
//   - ErrBadDensity       deme density below one.
//   - ErrEdgeIndex        an edge endpoint outside [1,nDemes].
//   - ErrSelfLoop         an edge joins a deme to itself.
//   - ErrSampleIndex      a sample mapped outside [0,nDemes).
//   - ErrNoSamples        no sample coordinates supplied.
//   - ErrDisconnected     matched by every *DisconnectedGraphError.
package lattice
