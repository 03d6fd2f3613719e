// Package sampler plans epoch batches over corpus indices under the
// constraint that no two samples in a batch share a source id. The plan is
// a greedy single pass over a fresh shuffle each epoch: colliding indices
// are dropped for that epoch rather than deferred.
package sampler
