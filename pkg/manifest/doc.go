/*
Package manifest builds, serializes, and prunes the per-commit lists of
data-file entries.

A manifest is a zstandard-compressed Avro container of entries, one per
data file, each carrying the file's size, SHA-256 checksum, record count,
and per-column lower/upper bounds. Entries tagged as Manifest point at
child manifests, so a commit's file set is a bounded tree of containers.

# Orderable Integers

Column bounds are packed into signed 64-bit integers so that pruning is a
single integer comparison regardless of the column type:

	int        itself, clamped
	float      round half to even
	datetime   UNIX seconds
	date       UNIX seconds at midnight UTC
	time       seconds since midnight
	decimal    rounded to integer
	string     first 8 UTF-8 bytes, NUL padded, big-endian signed
	bytes      first 8 bytes, NUL padded, big-endian signed

Values of the same type order the same as their packed integers; strings
tie beyond the eighth byte, which is sound for pruning (ties never prune).

# Pruning

Filters are conjunctions of (column, op, value) with the value packed by
the same rules. An entry is pruned only when its bounds prove no record
can match; a missing bound disables pruning for that column. Pruning is
applied while descending the manifest tree, so an eliminated subtree is
never read from storage.
*/
package manifest
