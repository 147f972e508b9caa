// Package regionsrc implements region.Source: an HTTP client for the public
// Indonesian administrative region API and a static in-memory hierarchy.
package regionsrc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/trezcool/ppdb/core"
	"github.com/trezcool/ppdb/core/region"
	"github.com/trezcool/ppdb/services/metrics"
)

// paths of the region API, by level; %s is the parent id
var paths = [...]string{
	region.Province: "/provinsi.json",
	region.City:     "/kabupaten/%s.json",
	region.District: "/kecamatan/%s.json",
	region.Village:  "/kelurahan/%s.json",
}

type apiNode struct {
	ID   string `json:"id"`
	Nama string `json:"nama"`
	Name string `json:"name"`
}

// HTTPSource queries the region API. Outgoing requests are rate limited and identical
// concurrent queries share one request. Nothing is cached.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	group   singleflight.Group
	logger  core.Logger
}

var _ region.Source = (*HTTPSource)(nil)

func NewHTTPSource(conf core.RegionsConfig, logger core.Logger) *HTTPSource {
	limit := rate.Inf
	if conf.RatePerSecond > 0 {
		limit = rate.Limit(conf.RatePerSecond)
	}
	burst := conf.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

func (src *HTTPSource) ListProvinces(ctx context.Context) (region.Nodes, error) {
	return src.list(ctx, region.Province, region.Unset)
}

func (src *HTTPSource) ListCities(ctx context.Context, provinceID region.NodeID) (region.Nodes, error) {
	return src.list(ctx, region.City, provinceID)
}

func (src *HTTPSource) ListDistricts(ctx context.Context, cityID region.NodeID) (region.Nodes, error) {
	return src.list(ctx, region.District, cityID)
}

func (src *HTTPSource) ListVillages(ctx context.Context, districtID region.NodeID) (region.Nodes, error) {
	return src.list(ctx, region.Village, districtID)
}

func (src *HTTPSource) list(ctx context.Context, lvl region.Level, parent region.NodeID) (region.Nodes, error) {
	if lvl > region.Province && !parent.IsSet() {
		return region.Nodes{}, nil
	}
	path := paths[lvl]
	if lvl > region.Province {
		path = fmt.Sprintf(path, url.PathEscape(string(parent)))
	}

	// the request outlives any single caller; each caller stops waiting on its own ctx
	ch := src.group.DoChan(path, func() (interface{}, error) {
		return src.fetch(ctx, lvl, path)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, errors.Wrap(region.ErrSourceUnavailable, ctx.Err().Error())
	}
	if res.Shared {
		metrics.RegionCoalescedTotal.WithLabelValues(lvl.String()).Inc()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// callers sharing a result must not share its backing array
	nodes := res.Val.(region.Nodes)
	return append(make(region.Nodes, 0, len(nodes)), nodes...), nil
}

func (src *HTTPSource) fetch(ctx context.Context, lvl region.Level, path string) (region.Nodes, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), src.timeout)
	defer cancel()

	label := lvl.String()
	metrics.RegionRequestsTotal.WithLabelValues(label).Inc()
	t0 := time.Now()

	nodes, err := src.do(ctx, path)
	metrics.RegionDurationMs.WithLabelValues(label).Observe(float64(time.Since(t0).Milliseconds()))
	if err != nil {
		metrics.RegionFailTotal.WithLabelValues(label).Inc()
		src.logger.Warn("region source: "+path, err)
		return nil, errors.Wrap(region.ErrSourceUnavailable, err.Error())
	}
	return nodes, nil
}

func (src *HTTPSource) do(ctx context.Context, path string) (region.Nodes, error) {
	if err := src.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.baseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := src.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "requesting")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return region.Nodes{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	var items []apiNode
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decoding response")
	}
	nodes := make(region.Nodes, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		name := it.Nama
		if name == "" {
			name = it.Name
		}
		nodes = append(nodes, region.Node{ID: region.NodeID(id), Name: strings.TrimSpace(name)})
	}
	return nodes, nil
}
