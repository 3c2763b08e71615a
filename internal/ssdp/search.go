package ssdp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/kmorling/netscout/internal/logging"
	"go.uber.org/zap"
)

const (
	// MulticastAddr is the SSDP multicast group and port
	MulticastAddr = "239.255.255.250:1900"

	// SearchTargetAll asks every SSDP device to respond
	SearchTargetAll = "ssdp:all"

	// SearchTargetRoot asks only root devices to respond
	SearchTargetRoot = "upnp:rootdevice"

	// DefaultMX is the response delay window (seconds) advertised in M-SEARCH
	DefaultMX = 2

	// readBufferSize fits the largest SSDP datagram we expect
	readBufferSize = 8192
)

// BuildSearchRequest constructs an SSDP M-SEARCH datagram for the given
// search target.
func BuildSearchRequest(st string, mx int) []byte {
	if st == "" {
		st = SearchTargetAll
	}
	if mx <= 0 {
		mx = DefaultMX
	}
	req := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + MulticastAddr + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		fmt.Sprintf("MX: %d\r\n", mx) +
		"ST: " + st + "\r\n\r\n"
	return []byte(req)
}

// Search multicasts an M-SEARCH for st and collects unicast responses until
// ctx expires. Malformed datagrams are logged and skipped.
func Search(ctx context.Context, st string, mx int) ([]*Message, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, fmt.Errorf("failed to open SSDP socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	raddr, err := net.ResolveUDPAddr("udp4", MulticastAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve SSDP multicast address: %w", err)
	}

	req := BuildSearchRequest(st, mx)
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	// Send twice; UDP multicast on busy networks drops single datagrams often
	// enough that every SSDP client retransmits
	for i := 0; i < 2; i++ {
		if _, err := conn.WriteToUDP(req, raddr); err != nil {
			return nil, fmt.Errorf("failed to send M-SEARCH: %w", err)
		}
	}

	deadline := time.Now().Add(time.Duration(mx+1) * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetReadDeadline(deadline)

	var messages []*Message
	buf := make([]byte, readBufferSize)
	for {
		if ctx.Err() != nil {
			break
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			// Deadline reached: the listen window is over, not a failure
			break
		}
		msg, err := Parse(buf[:n], addr.IP.String())
		if err != nil {
			logging.Debug("Skipping malformed SSDP datagram",
				zap.String("from", addr.IP.String()),
				zap.Error(err),
			)
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// CanListen reports whether a UDP socket suitable for SSDP can be opened.
// Used for capability detection at run start.
func CanListen() bool {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
