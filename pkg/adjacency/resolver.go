// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

package adjacency

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"github.com/vpcfabric/gwcore/pkg/lock"
	"github.com/vpcfabric/gwcore/pkg/logging"
	"github.com/vpcfabric/gwcore/pkg/logging/logfields"
	"github.com/vpcfabric/gwcore/pkg/lrpub"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
)

// DefaultPollPeriod is the resolver's default refresh interval.
const DefaultPollPeriod = 1 * time.Second

// Resolver polls the kernel neighbor table (ARP and NDP entries alike,
// vishvananda/netlink makes no family distinction here) and republishes the
// adjacency table wholesale every period. By default it reads the calling
// goroutine's network namespace; NewResolverInNamespace pins it to another
// one, for a router that keeps each VRF in its own namespace.
type Resolver struct {
	writer *lrpub.Writer[Table]
	period time.Duration
	handle *netlink.Handle // nil means: use the package-level netlink functions

	mu      lock.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewResolver creates a stopped resolver and returns it along with a Reader
// over the adjacency table it will publish.
func NewResolver(period time.Duration) (*Resolver, *lrpub.Reader[Table]) {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	w, r := lrpub.NewWriter(New())
	return &Resolver{writer: w, period: period}, r
}

// NewResolverInNamespace is NewResolver, but every poll reads the neighbor
// table of ns rather than the caller's own network namespace.
func NewResolverInNamespace(period time.Duration, ns netns.NsHandle) (*Resolver, *lrpub.Reader[Table], error) {
	if period <= 0 {
		period = DefaultPollPeriod
	}
	handle, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, nil, fmt.Errorf("open netlink handle in namespace: %w", err)
	}
	w, r := lrpub.NewWriter(New())
	return &Resolver{writer: w, period: period, handle: handle}, r, nil
}

// Start begins polling in a background goroutine. Calling Start on an
// already-running resolver is a no-op.
func (res *Resolver) Start(ctx context.Context) {
	res.mu.Lock()
	defer res.mu.Unlock()
	if res.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	res.cancel = cancel
	res.done = make(chan struct{})
	res.running = true

	go func() {
		defer close(res.done)
		ticker := time.NewTicker(res.period)
		defer ticker.Stop()
		res.refresh()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res.refresh()
			}
		}
	}()
}

// Stop signals the poller to exit and blocks until it has. Stop on a
// resolver that was never started, or already stopped, is a no-op.
func (res *Resolver) Stop() {
	res.mu.Lock()
	if !res.running {
		res.mu.Unlock()
		return
	}
	res.cancel()
	done := res.done
	res.running = false
	res.mu.Unlock()

	<-done
}

// refresh reads the current kernel neighbor table and republishes it as one
// clear+bulk-add+publish cycle.
func (res *Resolver) refresh() {
	var neighs []netlink.Neigh
	var err error
	if res.handle != nil {
		neighs, err = res.handle.NeighList(0, unix.AF_UNSPEC)
	} else {
		neighs, err = netlink.NeighList(0, unix.AF_UNSPEC)
	}
	if err != nil {
		logging.DefaultLogger.Warn("adjacency resolver: failed to read neighbor table",
			logfields.Error, err)
		return
	}

	adjs := make([]Adjacency, 0, len(neighs))
	for _, n := range neighs {
		if n.State&(netlink.NUD_REACHABLE|netlink.NUD_STALE|netlink.NUD_PERMANENT|netlink.NUD_NOARP) == 0 {
			// Incomplete/failed/probing entries carry no usable mac yet.
			continue
		}
		if len(n.HardwareAddr) != 6 {
			continue
		}
		ip, ok := netip.AddrFromSlice(n.IP)
		if !ok {
			continue
		}
		var mac netaddr.Mac
		copy(mac[:], n.HardwareAddr)
		adjs = append(adjs, Adjacency{
			IP:      ip.Unmap(),
			IfIndex: netaddr.IfIndex(n.LinkIndex),
			Mac:     mac,
		})
	}

	res.writer.Append(ReplaceAllOp{Adjacencies: adjs})
	res.writer.Publish()
}

// Close releases the resolver's publication primitive and, if it was
// constructed with NewResolverInNamespace, its dedicated netlink handle.
// Callers must Stop before Close if the resolver was started.
func (res *Resolver) Close() {
	if res.handle != nil {
		res.handle.Close()
	}
	res.writer.Close()
}

func (res *Resolver) String() string {
	return fmt.Sprintf("adjacency resolver (period=%s)", res.period)
}
