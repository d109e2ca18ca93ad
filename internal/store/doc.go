// Package store provides the SQLite-backed handle underneath the graph
// node and triple stores.
//
// A Store owns one database/sql pool and is shared, by explicit reference,
// by every consumer for the lifetime of a session. There is no package
// level connection.
//
// # Schema
//
//   - node: id (AUTOINCREMENT), label, properties (canonical JSON)
//   - triple: id (AUTOINCREMENT), subject_id, predicate_id, object_id,
//     each REFERENCES node(id) ON DELETE RESTRICT, UNIQUE over the tuple
//   - idx_node_label_unique: present only while label uniqueness is enforced
//
// # Database Configuration
//
// Settings are carried in the DSN so every pooled connection gets them:
//   - foreign_keys=ON unless disabled, and verified after connecting
//   - busy_timeout (default 5s)
//   - WAL journal and synchronous=NORMAL for file-backed stores
//   - _txlock=immediate so write transactions take the write lock up front
//
// # Errors
//
// Engine errors are mapped by Classify onto *Error with one of
// CodeConflict, CodeIntegrity, CodeUnavailable or CodeInvalid. Lookups
// that find nothing are not errors; consumers report absence explicitly.
//
// Two drivers are supported: github.com/mattn/go-sqlite3 (DriverCGO, the
// default) and modernc.org/sqlite (DriverPureGo) for CGO-free builds.
package store
