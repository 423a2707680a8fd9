package job

import "sync/atomic"

// snapshotBox publishes a Snapshot by swapping a pointer: readers always see
// a complete, consistent struct without taking the controller lock.
type snapshotBox struct {
	p atomic.Pointer[Snapshot]
}

func newSnapshotBox(s Snapshot) *snapshotBox {
	b := &snapshotBox{}
	b.p.Store(&s)
	return b
}

func (b *snapshotBox) load() Snapshot {
	return *b.p.Load()
}

func (b *snapshotBox) store(s Snapshot) {
	b.p.Store(&s)
}
