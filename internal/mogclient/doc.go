// Package mogclient speaks the tracker's line protocol to store new files.
//
// A file is created in three steps: create_open asks a tracker where to put
// the file, the body is sent to the returned storage path with an HTTP PUT,
// and create_close commits the fid with its final size. NewFile performs the
// first step and returns a File whose Write streams into the PUT request and
// whose Close finishes the transfer and commits.
package mogclient
