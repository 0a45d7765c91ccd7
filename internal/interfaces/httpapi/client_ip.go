package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

// clientIPHeaders are consulted before RemoteAddr, most specific proxy header first.
var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

func resolveClientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		if ip, ok := parseClientAddr(r.Header.Get(header)); ok {
			return ip
		}
	}
	ip, _ := parseClientAddr(r.RemoteAddr)
	return ip
}

// parseClientAddr accepts a bare address, host:port, or the first hop of a
// comma-separated forwarding chain.
func parseClientAddr(raw string) (string, bool) {
	first, _, _ := strings.Cut(raw, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", false
	}
	if addrPort, err := netip.ParseAddrPort(first); err == nil {
		return addrPort.Addr().Unmap().String(), true
	}
	addr, err := netip.ParseAddr(strings.Trim(first, "[]"))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
