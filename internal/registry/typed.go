package registry

import (
	"context"
	"errors"

	"asset-registry-api/internal/metrics"
	"asset-registry-api/internal/models"
	"asset-registry-api/internal/versioned"
)

// Typed returns the current entry decoded into T.
//
// A document that no longer matches T is treated as stale: its slot is
// expired and one unconditional fetch is made. If that still does not decode,
// the hard-coded catalog is served. Only when even the catalog does not decode
// is the *versioned.DeserializationError returned.
func Typed[T any](ctx context.Context, r *Registry, network models.Network, kind models.Kind) (T, error) {
	var zero T

	e, err := r.Entry(ctx, network, kind)
	if err != nil {
		return zero, err
	}
	out, err := versioned.DeserializeInto[T](e)
	if err == nil {
		return out, nil
	}
	var de *versioned.DeserializationError
	if !errors.As(err, &de) {
		return zero, err
	}

	r.metrics.DecodeFailure(string(network), string(kind))
	r.log.Warn("cached registry entry does not decode, refetching",
		"network", network, "kind", kind, "last_modified", e.LastModified(), "err", err)

	key := slotKey{network, kind}
	r.slots.Expire(key)
	e, _ = r.revalidate(ctx, key, true)
	if out, err = versioned.DeserializeInto[T](e); err == nil {
		return out, nil
	}

	r.metrics.Fallback(string(network), string(kind), metrics.ReasonDecodeFailed)
	r.log.Warn("refetched registry entry does not decode, serving built-in data",
		"network", network, "kind", kind, "err", err)

	hc := versioned.FromHardCoded(network, kind)
	out, err = versioned.DeserializeInto[T](hc)
	if err != nil {
		return zero, err
	}
	r.slots.Set(key, hc, r.retryInterval)
	return out, nil
}

// Assets returns the asset definitions of a network.
func (r *Registry) Assets(ctx context.Context, network models.Network) (models.Assets, error) {
	return Typed[models.Assets](ctx, r, network, models.KindAssets)
}

// AssetsByID returns only the listed assets. Unknown ids are skipped.
func (r *Registry) AssetsByID(ctx context.Context, network models.Network, ids []string) (models.Assets, error) {
	all, err := r.Assets(ctx, network)
	if err != nil {
		return nil, err
	}
	return all.Subset(ids), nil
}

// Icons returns the asset icons of a network.
func (r *Registry) Icons(ctx context.Context, network models.Network) (models.Icons, error) {
	return Typed[models.Icons](ctx, r, network, models.KindIcons)
}
