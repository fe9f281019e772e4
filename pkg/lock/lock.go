// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

// Package lock re-exports sync's Mutex and RWMutex; the gwcore_deadlock
// build tag swaps in github.com/sasha-s/go-deadlock's drop-in replacements,
// which detect lock-ordering cycles across the adjacency resolver, FRR
// client, router lock flag and flow-table queue critical sections at test
// time without paying for it in production builds.
//go:build !gwcore_deadlock

package lock

import "sync"

// Mutex is sync.Mutex unless built with -tags gwcore_deadlock.
type Mutex = sync.Mutex

// RWMutex is sync.RWMutex unless built with -tags gwcore_deadlock.
type RWMutex = sync.RWMutex
