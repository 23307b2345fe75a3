package ddns

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"time"

	"changeflare/common"
	"changeflare/config"
	"changeflare/log"

	cfapi "github.com/cloudflare/cloudflare-go"
	"go.uber.org/zap"
)

type cloudflare struct {
	token    string
	zoneID   string
	apiURL   string
	interval time.Duration

	// Last successfully fetched snapshot. Touched only by the single
	// reconciliation worker, so no locking is needed.
	cached []Record
}

type cloudflareOptions struct {
	// APIURL overrides the Cloudflare API base URL, for API gateways
	// and tests.
	APIURL string `mapstructure:"api_url"`
}

type logger struct {
	ctx context.Context
}

func (l *logger) Printf(format string, v ...interface{}) {
	log.S(l.ctx).Debugf(format, v...)
}

func (d *cloudflare) getAPI(ctx context.Context) (*cfapi.API, error) {
	client := http.DefaultClient

	if ctxClient := ctx.Value(common.HTTPClientKey); ctxClient != nil {
		client = ctxClient.(*http.Client)
	}

	opts := []cfapi.Option{
		cfapi.HTTPClient(client),
		cfapi.UsingLogger(&logger{ctx: ctx}),
	}
	if d.apiURL != "" {
		opts = append(opts, cfapi.BaseURL(d.apiURL))
	}

	api, err := cfapi.NewWithAPIToken(d.token, opts...)
	if err != nil {
		log.S(ctx).Errorw("failed create cloudflare API", zap.Error(err))
		return nil, fmt.Errorf("failed create cloudflare API: %w", err)
	}

	return api, nil
}

func (d *cloudflare) Records(ctx context.Context) ([]Record, error) {
	ctx = log.SWith(ctx,
		"type", "cloudflare",
		"action", "list",
		"zone", d.zoneID)

	api, err := d.getAPI(ctx)
	if err != nil {
		return d.cached, err
	}

	cfRecords, info, err := api.ListDNSRecords(ctx, cfapi.ZoneIdentifier(d.zoneID), cfapi.ListDNSRecordsParams{})
	if err != nil {
		// Keep reconciling against the last known set rather than
		// dropping records on a transient failure.
		log.S(ctx).Errorw("failed list records, keeping last known set",
			"cached", len(d.cached), zap.Error(err))
		return d.cached, fmt.Errorf("failed list records: %w", err)
	}

	// A successful list always carries result_info; a 200 envelope with
	// success:false comes back without it and must not wipe the cache.
	if info == nil || info.PerPage == 0 {
		log.S(ctx).Errorw("provider reported unsuccessful response, keeping last known set",
			"cached", len(d.cached))
		return d.cached, fmt.Errorf("provider reported unsuccessful response")
	}

	if info.HasMorePages() {
		log.S(ctx).Warnw("partial result, ignore remaining", "count", len(cfRecords), "total", info.Count, "pages", info.TotalPages)
	}

	snapshot := make([]Record, 0, len(cfRecords))
	for _, r := range cfRecords {
		content, err := netip.ParseAddr(r.Content)
		if err != nil {
			// CNAME and friends land here. Partial success is fine.
			log.S(ctx).Debugw("dropping record with non-address content",
				"record", r.Name, "ns_type", r.Type, "content", r.Content)
			continue
		}

		snapshot = append(snapshot, Record{
			ID:      r.ID,
			Name:    r.Name,
			Type:    r.Type,
			Content: content,
			TTL:     r.TTL,
			Proxied: r.Proxied != nil && *r.Proxied,
			ZoneID:  r.ZoneID,
		})
	}

	log.S(ctx).Debugw("fetched records", "count", len(snapshot))

	d.cached = snapshot
	return snapshot, nil
}

func (d *cloudflare) Update(ctx context.Context, r Record) (Record, error) {
	ctx = log.SWith(ctx,
		"type", "cloudflare",
		"action", "update",
		"ns_type", r.Type,
		"record", r.Name,
		"record_id", r.ID,
		"content", r.Content)

	api, err := d.getAPI(ctx)
	if err != nil {
		return r, err
	}

	zoneID := r.ZoneID
	if zoneID == "" {
		zoneID = d.zoneID
	}

	// The record is replaced wholesale with a PUT; cloudflare-go's typed
	// update call issues a partial PATCH instead, so go through Raw.
	payload := struct {
		Content string `json:"content"`
		Name    string `json:"name"`
		Proxied bool   `json:"proxied"`
		Type    string `json:"type"`
		TTL     int    `json:"ttl"`
	}{
		Content: r.Content.String(),
		Name:    r.Name,
		Proxied: r.Proxied,
		Type:    r.Type,
		TTL:     r.TTL,
	}

	uri := fmt.Sprintf("/zones/%s/dns_records/%s", zoneID, r.ID)
	if _, err := api.Raw(ctx, http.MethodPut, uri, payload, nil); err != nil {
		log.S(ctx).Warnw("failed update record", zap.Error(err))
		return r, fmt.Errorf("failed update record: %w", err)
	}

	// The provider's confirmed body is discarded; the caller keeps the
	// candidate it submitted and re-fetches next cycle anyway.
	log.S(ctx).Debugw("record written")

	return r, nil
}

func (d *cloudflare) PollInterval() time.Duration {
	return d.interval
}

func newCloudflare(ctx context.Context, provider config.Provider) (Interface, error) {
	ctx = log.SWith(ctx, "type", "cloudflare")

	var opts cloudflareOptions
	if err := common.WeakDecodeMap(provider.Config, &opts); err != nil {
		log.S(ctx).Errorw("bad config", zap.Error(err), "config", provider.Config)
		return nil, fmt.Errorf("bad config: %w", err)
	}

	// The API client is built per call, so a missing token surfaces as a
	// per-cycle diagnostic instead of failing startup.
	return &cloudflare{
		token:    provider.APIToken,
		zoneID:   provider.ZoneID,
		apiURL:   opts.APIURL,
		interval: time.Duration(provider.PollInterval),
	}, nil
}
