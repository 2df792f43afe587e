// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mempool provides validation and admission of transaction packages
into an unconfirmed transaction pool.

A package is an ordered list of related transactions submitted for
evaluation as a unit, allowing children that spend unconfirmed parent
outputs to be considered together with those parents.  Packages must be
topologically sorted (parents before children), conflict-free, and within
configurable count and total virtual size limits.

Validation happens in two tiers.  Structural checks (CheckPackage) reject
malformed packages before any member is examined individually; such
rejections carry package-level reject reasons.  When the structure is
sound, each member is evaluated in order against a snapshot of ledger and
pool state, with outputs of earlier members visible to later ones.  The
first failing member aborts the package and its specific reject reason is
reported alongside the aggregate outcome.

The PackageProcessor offers two admission modes.  ProcessPackage commits:
when every member passes, all of them are inserted into the pool in a
single atomic batch, so no observer ever sees a partially admitted
package.  CheckPackageAcceptance evaluates the same pipeline without
mutating anything, which makes it suitable for fee estimation and
pre-broadcast checks, and allows any number of such evaluations to run
concurrently.
*/
package mempool
