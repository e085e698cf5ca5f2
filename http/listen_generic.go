//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package http

import "net"

func listenConfig() net.ListenConfig {
	return net.ListenConfig{}
}
