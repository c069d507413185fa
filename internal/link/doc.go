// Package link brings up the node's network link.
//
// Two providers exist:
//   - NMCLI drives a Wi-Fi interface through NetworkManager's nmcli
//   - Static treats an already configured interface (wired, or Wi-Fi
//     managed elsewhere) as the link
//
// Connect only starts association and returns immediately. The caller polls
// Link.Connected with its own bound, mirroring how a microcontroller radio
// is brought up: request, then poll status.
package link
