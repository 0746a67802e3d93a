// Package discovery finds the controller's plugin endpoint with mDNS/DNS-SD.
//
// The controller advertises one _hspi._tcp instance on the local network.
// Its TXT record carries:
//
//	id    instance id, stable across restarts (required)
//	ver   plugin protocol version (required)
//	name  user-facing controller name (optional)
//
// Plugins browse for the service, pick an instance and dial the advertised
// port with pkg/transport. Addresses seen on several interfaces are merged
// into one ControllerService per instance.
package discovery
