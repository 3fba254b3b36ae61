package device

import (
	"net"
)

// Network resolves the device's own address for the last display
// line.
type Network struct {
}

func NewNetwork() *Network {
	return &Network{}
}

// LocalIP returns the first non-loopback IPv4 address, empty when the
// device has no usable address yet.
func (n *Network) LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return ""
}
