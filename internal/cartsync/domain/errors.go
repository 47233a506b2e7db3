package domain

import "errors"

var ErrSnapshotNotFound = errors.New("cart_snapshot_not_found")
