package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"changeflare/common"
	"changeflare/config"
	"changeflare/log"

	"github.com/pion/stun/v3"
	"go.uber.org/zap"
)

const defaultSTUNServer = "stun.cloudflare.com:3478"
const defaultSTUNTimeout = 5 * time.Second
const maxSTUNMessage = 1500

type stunConfig struct {
	Servers []string        `mapstructure:"servers"`
	Family  common.Family   `mapstructure:"family"`
	Timeout common.Duration `mapstructure:"timeout"`
}

// stunSource performs one binding-request exchange per lookup: bind an
// ephemeral local UDP port, send a request to a well-known server and read
// back the address the server observed.
type stunSource struct {
	stunConfig
}

func (s *stunSource) Typename() string {
	return "stun"
}

func (s *stunSource) Lookup(ctx context.Context) (netip.AddrPort, error) {
	var errs []error
	for _, server := range s.Servers {
		addr, err := s.query(ctx, server)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", server, err))
			continue
		}

		return addr, nil
	}

	return netip.AddrPort{}, fmt.Errorf("all STUN servers failed: %w", errors.Join(errs...))
}

func (s *stunSource) query(ctx context.Context, server string) (result netip.AddrPort, err error) {
	ctx = log.SWith(ctx, "server", server, "family", s.Family)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got external address", "address", result)
		}
	}()

	// Dialing binds the ephemeral local endpoint and resolves the server
	// name over the selected family in one step.
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, s.Family.Network("udp"), server)
	if err != nil {
		log.S(ctx).Warnw("dial failed", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("dial failed: %w", err)
	}

	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			log.S(ctx).Warnw("close connection failed", zap.Error(err))
		}
	}(conn)

	timeout := time.Duration(s.Timeout)
	if timeout <= 0 {
		timeout = defaultSTUNTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		log.S(ctx).Warnw("set deadline failed", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("set deadline failed: %w", err)
	}

	request, err := stun.Build(stun.TransactionID, stun.BindingRequest)
	if err != nil {
		log.S(ctx).Errorw("failed building binding request", zap.Error(err), log.Internal)
		return netip.AddrPort{}, fmt.Errorf("failed building binding request: %w", err)
	}

	if _, err := conn.Write(request.Raw); err != nil {
		log.S(ctx).Warnw("send failed", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("send failed: %w", err)
	}

	buf := make([]byte, maxSTUNMessage)
	n, err := conn.Read(buf)
	if err != nil {
		log.S(ctx).Warnw("no response from server", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("no response from server: %w", err)
	}

	if !stun.IsMessage(buf[:n]) {
		log.S(ctx).Warnw("response is not a STUN message", "bytes", n)
		return netip.AddrPort{}, fmt.Errorf("response is not a STUN message")
	}

	response := &stun.Message{Raw: buf[:n]}
	if err := response.Decode(); err != nil {
		log.S(ctx).Warnw("failed decoding response", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("failed decoding response: %w", err)
	}

	if response.TransactionID != request.TransactionID {
		log.S(ctx).Warnw("mismatched transaction id")
		return netip.AddrPort{}, fmt.Errorf("mismatched transaction id")
	}

	var mapped stun.XORMappedAddress
	if err := mapped.GetFrom(response); err != nil {
		log.S(ctx).Warnw("no mapped address in response", zap.Error(err))
		return netip.AddrPort{}, fmt.Errorf("no mapped address in response: %w", err)
	}

	ip, ok := netip.AddrFromSlice(mapped.IP)
	if !ok {
		log.S(ctx).Errorw("server returned bad address", "address", mapped.IP, log.Internal)
		return netip.AddrPort{}, fmt.Errorf("server returned bad address")
	}

	return netip.AddrPortFrom(ip.Unmap(), uint16(mapped.Port)), nil
}

func newSTUN(ctx context.Context, config config.Source) (Interface, error) {
	ctx = log.SWith(ctx, "type", "stun")

	s := &stunSource{}
	if err := common.WeakDecodeMap(config.Config, &s.stunConfig); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", config.Config)
		return nil, fmt.Errorf("bad config: %w", err)
	}

	if len(s.Servers) == 0 {
		s.Servers = []string{defaultSTUNServer}
	}

	return s, nil
}
