// Package journal records process starts and supervisory cycle outcomes in
// the node's local SQLite database.
//
// In restart mode the process exits after every cycle, so the journal is
// the only place the previous cycle's outcome survives. At startup the
// node logs the boot count and how the last cycle of the previous process
// ended.
package journal
