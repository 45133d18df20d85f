// Package transport provides the duplex byte streams the screenshare
// protocol runs on. Connections are plain TCP by default; an srt:// address
// selects an SRT socket instead. Either way callers see the same Conn with
// read-exact friendly error mapping, serialized write-all semantics and
// half-close support.
package transport
