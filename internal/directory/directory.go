// Package directory fetches and caches per-user recipient device keys from
// the key-directory service.
package directory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"sealchat/internal/domain"
	"sealchat/internal/store"
)

// Directory resolves the active devices of remote users. Cached entries are
// refreshed only on explicit invalidation (chat open, encrypt miss); there
// is no background refresh.
type Directory struct {
	client  domain.KeyClient
	session *store.SessionCache
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New returns a Directory over the given key client and session cache.
// The limiter bounds how hard a burst of chat opens can hammer the
// directory service.
func New(client domain.KeyClient, session *store.SessionCache, log zerolog.Logger) *Directory {
	return &Directory{
		client:  client,
		session: session,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		log:     log.With().Str("component", "directory").Logger(),
	}
}

// Devices returns the active (non-revoked) devices for userID, fetching
// from the directory service on a cache miss. Failures are wrapped in
// domain.ErrDirectoryFetchFailed and scoped to this user only.
func (d *Directory) Devices(ctx context.Context, userID int64) ([]domain.RecipientDevice, error) {
	if cached, ok := d.session.Devices(userID); ok {
		return cached, nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	all, err := d.client.FetchDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %d: %v", domain.ErrDirectoryFetchFailed, userID, err)
	}

	active := make([]domain.RecipientDevice, 0, len(all))
	for _, dev := range all {
		if dev.Revoked {
			continue
		}
		active = append(active, dev)
	}
	d.session.SetDevices(userID, active)
	d.log.Debug().Int64("user_id", userID).Int("devices", len(active)).Msg("device list refreshed")
	return active, nil
}

// DevicesForUsers resolves devices for several users at once. A failure for
// one user is logged and recorded but does not abort the others; the
// returned map holds every successful fetch.
func (d *Directory) DevicesForUsers(ctx context.Context, userIDs []int64) (map[int64][]domain.RecipientDevice, map[int64]error) {
	devices := make(map[int64][]domain.RecipientDevice, len(userIDs))
	errs := make(map[int64]error)
	for _, id := range userIDs {
		devs, err := d.Devices(ctx, id)
		if err != nil {
			d.log.Warn().Int64("user_id", id).Err(err).Msg("device fetch failed, continuing")
			errs[id] = err
			continue
		}
		devices[id] = devs
	}
	return devices, errs
}

// Invalidate drops the cached device list for a user so the next Devices
// call hits the directory service again.
func (d *Directory) Invalidate(userID int64) {
	d.session.DropDevices(userID)
}

// Compile-time assertion that Directory implements domain.DeviceDirectory.
var _ domain.DeviceDirectory = (*Directory)(nil)
