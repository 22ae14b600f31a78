// Package session owns the network association and the broker session of
// one pico-link endpoint.
//
// A Manager produces policy-compliant sessions: every session it opens has
// its will set to a retained "offline" on the device status topic, has all
// tracked subscriptions registered, and has announced a retained "online"
// before it is handed to the caller. Subscriptions are always in place
// before "online" is published, so a peer that waits for "online" cannot
// send a command the endpoint misses.
//
// The Manager never retries by itself. Endpoints choose their policy:
//
//	conn, err := m.Recover(old)  // close old (errors ignored), open once
//	conn, err := m.Open()        // open, superseding the old handle unclosed
//
// Session state is explicit and inspectable:
//
//	Disconnected → Connecting → Live
//	     ↑______________|         |
//	     |________________________|  (failure reported, Recover, Close)
package session
