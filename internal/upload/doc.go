// Package upload streams a local file or standard input into the storage
// system through an Opener.
//
// Run opens the remote file exactly once, copies the source in fixed-size
// chunks, and closes the remote file exactly once. Any failure aborts the
// upload; partially written files are left for the trackers to reap.
package upload
