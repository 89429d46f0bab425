// Package votingregistry implements the weighted voting registry inside the
// gallery context.
//
// The module owns subject registration under a capacity bound, weighted vote
// intake with per-subject uniqueness and a global per-voter cooldown, ranked
// top-K reads, and registry event production through outbox-backed workers.
// Business rules live in the application/domain layers; infrastructure
// concerns stay behind ports and adapters.
package votingregistry
