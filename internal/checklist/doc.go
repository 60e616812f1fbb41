// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package checklist runs the production readiness review.
//
// Twelve fixed checks inspect configuration, credentials, the on-disk
// audit surface, and the wired governance components, then roll up into
// a 0-100 readiness score. A check that panics counts as failed; the
// review itself never aborts.
package checklist
