// Command mogupload stores a file, or standard input, in MogileFS under a
// domain and key.
//
//	mogupload --trackers 10.0.0.1:7001,10.0.0.2:7001 --domain photos \
//	    --class thumbs --key cat.jpg --file cat.jpg
//
// Trackers are tried in order. The body is streamed in chunks; any failure
// aborts the upload and exits non-zero.
package main
