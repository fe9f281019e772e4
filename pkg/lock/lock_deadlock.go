// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of gwcore

//go:build gwcore_deadlock

package lock

import "github.com/sasha-s/go-deadlock"

// Mutex is deadlock.Mutex when built with -tags gwcore_deadlock.
type Mutex = deadlock.Mutex

// RWMutex is deadlock.RWMutex when built with -tags gwcore_deadlock.
type RWMutex = deadlock.RWMutex
