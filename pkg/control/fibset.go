// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package control

import (
	"github.com/vpcfabric/gwcore/pkg/fib"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// FibSet is every VRF's compiled FIB, published as a single lrpub value so
// a data-plane worker resolves (vrf, dst) with one read guard.
type FibSet struct {
	byKey map[netaddr.FibKey]fib.Fib
}

// NewFibSet returns an empty FibSet.
func NewFibSet() FibSet {
	return FibSet{byKey: map[netaddr.FibKey]fib.Fib{}}
}

// Clone implements lrpub.Cloner.
func (s FibSet) Clone() FibSet {
	out := NewFibSet()
	for k, v := range s.byKey {
		out.byKey[k] = v.Clone()
	}
	return out
}

// Get returns the Fib for key.
func (s FibSet) Get(key netaddr.FibKey) (fib.Fib, bool) {
	f, ok := s.byKey[key]
	return f, ok
}

// Len returns the number of VRFs with a compiled Fib.
func (s FibSet) Len() int { return len(s.byKey) }

// ApplyBatchOp is an lrpub.Op[FibSet] that applies a fib.BatchOp to one
// VRF's Fib within the set, creating the Fib if this is its first write.
type ApplyBatchOp struct {
	Key   netaddr.FibKey
	Batch fib.BatchOp
}

func (o ApplyBatchOp) Apply(write, read *FibSet) {
	f, ok := write.byKey[o.Key]
	if !ok {
		f = fib.New(o.Key)
	}
	o.Batch.Apply(&f, nil)
	write.byKey[o.Key] = f
}

// RemoveVrfOp is an lrpub.Op[FibSet] that drops a VRF's Fib entirely,
// e.g. when a VRF is deleted from configuration.
type RemoveVrfOp struct {
	Key netaddr.FibKey
}

func (o RemoveVrfOp) Apply(write, read *FibSet) {
	delete(write.byKey, o.Key)
}
