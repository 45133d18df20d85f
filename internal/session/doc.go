// Package session is the server side of a screenshare stream. It accepts
// viewers, greets each with the codec handshake, fans every encoded packet
// out to all of them concurrently, evicts the ones whose writes fail, and
// merges the actions they send back into one queue for the producer loop.
package session
