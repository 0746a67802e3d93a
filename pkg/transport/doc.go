// Package transport carries controller messages over a byte stream.
//
// Every message is one frame: a 4-byte big-endian length followed by the
// CBOR payload. The link runs over plain TCP on the controller's local
// network.
//
//	┌────────────────────────────────┐
//	│   CBOR request / response      │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// Server accepts plugin connections and hands each one to a Handler; Dial
// opens the plugin side.
package transport
