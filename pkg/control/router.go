// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package control is the router's single-threaded control loop: it owns
// every published table's Writer half, applies validated configuration and
// kernel-sourced events to them in a well-defined order, and exposes the
// Lock/Unlock quiescence protocol a config applier uses to pause event
// ingestion while it recomputes RIBs.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/vpcfabric/gwcore/pkg/adjacency"
	"github.com/vpcfabric/gwcore/pkg/config"
	"github.com/vpcfabric/gwcore/pkg/gwerr"
	"github.com/vpcfabric/gwcore/pkg/iftable"
	"github.com/vpcfabric/gwcore/pkg/lock"
	"github.com/vpcfabric/gwcore/pkg/lrpub"
	"github.com/vpcfabric/gwcore/pkg/nat"
	"github.com/vpcfabric/gwcore/pkg/netaddr"
	"github.com/vpcfabric/gwcore/pkg/rib"
	"github.com/vpcfabric/gwcore/pkg/rmac"
)

// Router owns all published tables and the private RIB state they are
// compiled from. It is not itself safe for concurrent method calls from
// multiple goroutines except where documented (Lock/Unlock and the reader
// accessors, which only ever touch lrpub's own synchronization) — the
// control loop (Loop) is the sole mutator, by design.
type Router struct {
	log *slog.Logger

	// InstanceID identifies this process's Router across a log stream,
	// distinguishing runs after a restart.
	InstanceID uuid.UUID

	iftableW *lrpub.Writer[iftable.IfTable]
	rmacW    *lrpub.Writer[rmac.Store]
	fibW     *lrpub.Writer[FibSet]
	natW     *lrpub.Writer[nat.Tables]

	adjResolver *adjacency.Resolver
	adjReader   *lrpub.Reader[adjacency.Table]

	vtep rmac.VtepConfig

	vrfs map[netaddr.FibKey]*rib.Vrf
	vrf0 *rib.Vrf

	lockMu  lock.Mutex
	frozen  bool
	current *config.Config
}

// Readers is the set of reader handles a data-plane worker or CLI needs.
type Readers struct {
	IfTable   *lrpub.Reader[iftable.IfTable]
	Rmac      *lrpub.Reader[rmac.Store]
	Fib       *lrpub.Reader[FibSet]
	Nat       *lrpub.Reader[nat.Tables]
	Adjacency *lrpub.Reader[adjacency.Table]
}

// NewRouter returns a Router with all tables empty and returns the reader
// handles a data-plane worker should keep. adjPeriod is the adjacency
// resolver's poll period; zero selects adjacency.DefaultPollPeriod.
func NewRouter(log *slog.Logger, adjPeriod time.Duration) (*Router, Readers) {
	if log == nil {
		log = slog.Default()
	}
	if adjPeriod <= 0 {
		adjPeriod = adjacency.DefaultPollPeriod
	}
	iftableW, iftableR := lrpub.NewWriter[iftable.IfTable](iftable.New())
	rmacW, rmacR := lrpub.NewWriter[rmac.Store](rmac.New())
	fibW, fibR := lrpub.NewWriter[FibSet](NewFibSet())
	natW, natR := lrpub.NewWriter[nat.Tables](nat.NewTables())

	vrf0 := rib.NewVrf(netaddr.FibKeyFromID(0))
	resolver, adjR := adjacency.NewResolver(adjPeriod)
	instanceID := uuid.New()
	log = log.With("instance", instanceID)

	r := &Router{
		log:         log,
		InstanceID:  instanceID,
		iftableW:    iftableW,
		rmacW:       rmacW,
		fibW:        fibW,
		natW:        natW,
		adjResolver: resolver,
		adjReader:   adjR,
		vrfs:        map[netaddr.FibKey]*rib.Vrf{vrf0.Key: vrf0},
		vrf0:        vrf0,
	}
	return r, Readers{IfTable: iftableR, Rmac: rmacR, Fib: fibR, Nat: natR, Adjacency: adjR}
}

// Lock sets the frozen flag; while it is set, Loop stops receiving from its
// CPI channel, so inbound events stay queued there. Calling Lock while
// already locked is a no-op.
func (r *Router) Lock() {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	r.frozen = true
}

// Unlock clears the frozen flag, so Loop resumes receiving CPI events.
func (r *Router) Unlock() {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	r.frozen = false
}

// GuardedUnlock clears the frozen flag exactly as Unlock does. This package
// has no lock-guard type that sends it automatically.
func (r *Router) GuardedUnlock() { r.Unlock() }

// Frozen reports whether the control loop currently leaves its CPI channel
// unread.
func (r *Router) Frozen() bool {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	return r.frozen
}

// Finish releases background resources (the adjacency resolver's poll
// goroutine) and closes every published table's Writer. Call once, at
// shutdown.
func (r *Router) Finish() {
	r.adjResolver.Stop()
	r.iftableW.Close()
	r.rmacW.Close()
	r.fibW.Close()
	r.natW.Close()
}

// StartBackground starts the adjacency resolver's periodic poll.
func (r *Router) StartBackground(ctx context.Context) {
	r.adjResolver.Start(ctx)
}

func (r *Router) vrfFor(key netaddr.FibKey) (*rib.Vrf, error) {
	v, ok := r.vrfs[key]
	if !ok {
		return nil, gwerr.NoSuchVrf(key.String())
	}
	return v, nil
}

// ensureVrf returns key's Vrf, creating an empty one if this is the VRF's
// first reference from configuration.
func (r *Router) ensureVrf(key netaddr.FibKey) *rib.Vrf {
	if v, ok := r.vrfs[key]; ok {
		return v
	}
	v := rib.NewVrf(key)
	r.vrfs[key] = v
	return v
}

// Configure validates cfg, rejects it if its GenID is not strictly newer
// than the last config successfully applied, and compiles its NAT tables.
// It then records the VTEP config and appends, in order, the interface
// reconfiguration (delete, modify, add), the VPC attachments (creating each
// VPC's VRF on first reference) and the NAT table set, and publishes the
// interface and NAT tables. RMAC entries and routes are not changed by
// Configure. A validation, GenID or NAT compilation error returns before
// any table or Router field is changed. Errors of individual interface ops
// (for example an attachment naming an unknown ifindex) are not collected:
// such an op leaves its interface unchanged and Configure still succeeds.
func (r *Router) Configure(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if r.current != nil && cfg.GenID <= r.current.GenID {
		return gwerr.StaleGenID(cfg.GenID, r.current.GenID)
	}

	// NAT tables: compile before any Append, so a compile error leaves no
	// pending op behind for a later Publish to apply.
	tables, err := nat.BuildConfiguration(cfg.NatPeerings())
	if err != nil {
		return err
	}

	// Interfaces: reconfigure against the currently published table.
	guard, ok := r.iftableW.NewReader().Enter()
	if !ok {
		return gwerr.Internal("configure: iftable reader closed", nil)
	}
	current := *guard.Value()
	guard.Close()

	r.vtep = cfg.Underlay.Vtep

	plan := iftable.Reconfigure(current, cfg.Device.Interfaces)
	for _, op := range plan.Ops() {
		r.iftableW.Append(op)
	}

	// Attachments: apply each VPC's interface set.
	for _, vpc := range cfg.Vpcs {
		vrfKey := netaddr.FibKeyFromID(netaddr.VrfId(vpc.Disc.Vni().AsU32()))
		r.ensureVrf(vrfKey)
		for _, ifindex := range vpc.Attachments {
			r.iftableW.Append(&iftable.AttachToVrfOp{IfIndex: ifindex, VRF: vrfKey})
		}
	}

	// NAT tables: publish wholesale.
	r.natW.Append(nat.SetTablesOp{Tables: tables})

	r.iftableW.Publish()
	r.natW.Publish()

	saved := cfg
	r.current = &saved
	r.log.Info("configuration applied", "genid", cfg.GenID, "vpcs", len(cfg.Vpcs), "peerings", len(cfg.Peerings))
	return nil
}

// RefreshFib recomputes and republishes the FibSet entries affected by
// prefixes in vrfKey, given the current rmac store and VTEP config. Callers
// (CPI ingress, periodic tick) invoke this after mutating a Vrf's RIB.
func (r *Router) RefreshFib(vrfKey netaddr.FibKey, prefixes []netaddr.Prefix) error {
	vrf, err := r.vrfFor(vrfKey)
	if err != nil {
		return err
	}

	rguard, ok := r.rmacW.NewReader().Enter()
	if !ok {
		return gwerr.Internal("refresh fib: rmac reader closed", nil)
	}
	rstore := *rguard.Value()
	rguard.Close()

	batch := vrf.RefreshFib(prefixes, rstore, r.vtep)
	if len(batch.Install) == 0 && len(batch.Remove) == 0 {
		return nil
	}
	r.fibW.Append(ApplyBatchOp{Key: vrfKey, Batch: batch})
	r.fibW.Publish()
	return nil
}

// AddRoute installs a route into vrfKey's RIB and republishes the affected
// FibSet entries. It returns an error if vrfKey is unknown.
func (r *Router) AddRoute(vrfKey netaddr.FibKey, prefix netaddr.Prefix, route rib.Route, nhops []rib.NhopKey) error {
	vrf, err := r.vrfFor(vrfKey)
	if err != nil {
		return err
	}
	affected := vrf.AddRoute(prefix, route, nhops, r.vrf0)
	return r.RefreshFib(vrfKey, affected)
}

// DeleteRoute withdraws a route from vrfKey's RIB and republishes every
// FibSet entry affected, including routes whose next-hops now resolve
// differently as a result.
func (r *Router) DeleteRoute(vrfKey netaddr.FibKey, prefix netaddr.Prefix) error {
	vrf, err := r.vrfFor(vrfKey)
	if err != nil {
		return err
	}
	affected := vrf.DeleteRoute(prefix, r.vrf0)
	return r.RefreshFib(vrfKey, affected)
}

// AddRmac installs a router-mac entry and publishes it. It neither fails nor
// logs when no route currently depends on the entry — it is legal for RMAC
// entries to arrive before the overlay route that references them.
func (r *Router) AddRmac(vni netaddr.Vni, address netip.Addr, mac netaddr.Mac) {
	r.rmacW.Append(rmac.AddOp{Vni: vni, Address: address, Mac: mac})
	r.rmacW.Publish()
}

// RouterState is a read-only snapshot of table sizes, answering the
// control channel's Show message and backing the CLI's ShowRouterVrfs
// family of actions.
type RouterState struct {
	Vrfs       int
	Interfaces int
	FibVrfs    int
	NatVnis    int
}

// ShowState reports current table sizes without mutating anything.
func (r *Router) ShowState() RouterState {
	state := RouterState{Vrfs: len(r.vrfs)}
	if guard, ok := r.iftableW.NewReader().Enter(); ok {
		state.Interfaces = guard.Value().Len()
		guard.Close()
	}
	if guard, ok := r.fibW.NewReader().Enter(); ok {
		state.FibVrfs = guard.Value().Len()
		guard.Close()
	}
	if guard, ok := r.natW.NewReader().Enter(); ok {
		state.NatVnis = guard.Value().Len()
		guard.Close()
	}
	return state
}

func (r *Router) String() string {
	return fmt.Sprintf("control.Router{vrfs=%d}", len(r.vrfs))
}
