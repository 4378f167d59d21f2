package service

import (
	"strconv"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type vehicleLock struct {
	mu   sync.Mutex
	refs int
}

// VehicleLocker serializes ingestion per vehicle within one process. Entries
// are reference counted and dropped once no caller holds or waits on them.
// Replicas behind a load balancer do not share it, so two servers can still
// race on the same vehicle.
type VehicleLocker struct {
	locks cmap.ConcurrentMap[string, *vehicleLock]
}

func NewVehicleLocker() *VehicleLocker {
	return &VehicleLocker{locks: cmap.New[*vehicleLock]()}
}

// Lock blocks until the caller owns the vehicle and returns the release func.
func (l *VehicleLocker) Lock(vehicleID int64) func() {
	key := strconv.FormatInt(vehicleID, 10)

	vl := l.locks.Upsert(key, nil, func(exist bool, cur, _ *vehicleLock) *vehicleLock {
		if !exist {
			cur = &vehicleLock{}
		}
		cur.refs++
		return cur
	})
	vl.mu.Lock()

	return func() {
		vl.mu.Unlock()
		l.locks.RemoveCb(key, func(_ string, cur *vehicleLock, exists bool) bool {
			if !exists {
				return false
			}
			cur.refs--
			return cur.refs == 0
		})
	}
}

// held returns the number of vehicles with a holder or waiter.
func (l *VehicleLocker) held() int {
	return l.locks.Count()
}
