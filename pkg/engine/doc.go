/*
Package engine implements Tarchia's transactional commit state machine.

The engine is the write path of the catalog: it accepts staged file
additions and deletions against a parent commit, produces a new immutable
manifest, and atomically advances the per-table commit history. It is the
only component that mutates catalog entries.

# Architecture

	┌──────────────────── COMMIT ENGINE ─────────────────────┐
	│                                                          │
	│  start ──► stage* ──► (truncate) ──► commit              │
	│    │         │                          │                │
	│    ▼         ▼                          ▼                │
	│  ┌──────────────────────────────────────────────┐       │
	│  │        signed transaction envelope            │       │
	│  │  base64(json(txn)) . sha256(key || json)      │       │
	│  │  carried client-side, no server state         │       │
	│  └──────────────────┬───────────────────────────┘       │
	│                     │ commit                             │
	│  ┌──────────────────▼───────────────────────────┐       │
	│  │ 1. verify envelope, resolve table             │       │
	│  │ 2. fast-forward check against current head    │       │
	│  │ 3. read parent manifest (empty if truncate)   │       │
	│  │ 4. build new manifest, write manifest blob    │       │
	│  │ 5. XOR-fold entry checksums into data_hash    │       │
	│  │ 6. derive commit sha, write commit blob       │       │
	│  │ 7. append history entry, write history blob   │       │
	│  │ 8. compare-and-set catalog entry   ◄── linearization │
	│  │ 9. fire NEW_COMMIT webhooks (best effort)     │       │
	│  └──────────────────────────────────────────────┘       │
	│                                                          │
	└──────────────────────────────────────────────────────────┘

# Failure Semantics

Steps 4 through 7 write new blobs (the manifest and history under fresh
ids, the commit under its sha) that no reader can reach until step 8
publishes them; a failure in between leaves garbage, never a
broken table. Losing the compare-and-set at step 8 surfaces as a
commit-out-of-date transaction error and the caller restarts from the new
head. Event delivery in step 9 is off the commit path: the commit has
already succeeded whatever the webhooks do.

# Concurrency

Tables are independent; there is no cross-table coordination. Within one
table, the catalog provider guarantees per-document serializability of the
conditional update, so two concurrent commits against the same parent
resolve with exactly one winner.
*/
package engine
