package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"changeflare/config"
	"changeflare/log"

	"go.uber.org/zap"
)

// Interface is one way of discovering the host's externally visible
// transport address.
type Interface interface {
	Lookup(ctx context.Context) (netip.AddrPort, error)
	Typename() string
}

var Sources = map[string]func(ctx context.Context, source config.Source) (Interface, error){
	"stun": newSTUN,
}

// Chain tries its sources in order each cycle and returns the first
// successful lookup. A fully failed pass is surfaced to the caller, which
// treats the cycle as a no-op.
type Chain struct {
	sources []Interface
}

func (c *Chain) Resolve(ctx context.Context) (netip.AddrPort, error) {
	ctx = log.SWith(ctx, log.Stage("resolve"))

	var errs []error
	for _, source := range c.sources {
		addr, err := source.Lookup(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", source.Typename(), err))
			continue
		}

		log.S(ctx).Infow("resolved external address", "address", addr, "source_type", source.Typename())
		return addr, nil
	}

	log.S(ctx).Errorw("all sources failed, unable to resolve external address", zap.Error(errors.Join(errs...)))
	return netip.AddrPort{}, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
}

func New(ctx context.Context, c []config.Source) (*Chain, error) {
	if len(c) == 0 {
		c = []config.Source{{Type: "stun"}}
	}

	chain := &Chain{}
	for _, s := range c {
		ctx := log.SWith(ctx, log.Stage("init:source"), "type", s.Type)

		create, ok := Sources[s.Type]
		if !ok {
			log.S(ctx).Errorw("unknown source type")
			return nil, fmt.Errorf("unknown source type %q", s.Type)
		}

		source, err := create(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed creating source: %w", err)
		}

		chain.sources = append(chain.sources, source)
	}

	return chain, nil
}
