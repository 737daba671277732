// Package color holds the single Color value effects write into LED strip
// buffers, and the packing routine that turns a strip of them into the
// raw wire format a device sender writes to the network.
package color

// Color is one LED's RGB value.
type Color struct {
	R, G, B byte
}

// Pack appends the raw r,g,b,r,g,b,... byte sequence for strip to dst and
// returns the extended slice. No framing or checksum is added; this is
// the exact wire format a device expects on its socket.
func Pack(dst []byte, strip []Color) []byte {
	for _, c := range strip {
		dst = append(dst, c.R, c.G, c.B)
	}
	return dst
}

// Bytes is a convenience wrapper around Pack for callers that don't
// already hold a reusable buffer.
func Bytes(strip []Color) []byte {
	return Pack(make([]byte, 0, len(strip)*3), strip)
}
