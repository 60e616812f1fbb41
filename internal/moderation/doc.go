// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package moderation provides content moderation backends for llmgate.
//
// The Moderator interface is implemented twice: an HTTP client for an
// external moderation service, and a local keyword heuristic used when no
// service is configured or the service fails. The security gate selects
// the implementation once at construction and degrades to the heuristic
// on backend errors.
package moderation
