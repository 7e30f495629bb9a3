package shield

import (
	"context"
)

// needsGrant decides whether device must pass a device grant before uid
// trusts it. A known pair is trusted, and so is the very first device of an
// account. Store errors count as untrusted.
func needsGrant(ctx context.Context, store Store, uid int64, device string) (bool, error) {
	known, err := store.DeviceExists(ctx, uid, device)
	if err != nil {
		return true, err
	}
	if known {
		return false, nil
	}
	hasAny, err := store.HasDevices(ctx, uid)
	if err != nil {
		return true, err
	}
	return hasAny, nil
}
