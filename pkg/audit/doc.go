// Package audit records one access entry per handled request into a
// SQLite store, asynchronously, with cron-scheduled retention.
//
// The recorder is load-shedding by design: a request is never delayed or
// failed for the sake of its audit record. When the buffer is full the
// record is dropped and the drop counted.
package audit
