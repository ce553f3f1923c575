package backend

import "context"

// Lister replays a backend listing without re-querying the backend. The
// checker uses it to list snapshot handles once and then reuse the result
// both for the handle count and for loading the manifests.
type Lister interface {
	List(ctx context.Context, fn func(Entry) error) error
}

type memorizedLister struct {
	entries []Entry
}

func (m *memorizedLister) List(ctx context.Context, fn func(Entry) error) error {
	for _, e := range m.entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// MemorizeList runs a single List(t) call against be and returns a Lister
// that can be replayed any number of times without touching be again.
func MemorizeList(ctx context.Context, be Backend, t FileType) (Lister, error) {
	var entries []Entry
	err := be.List(ctx, t, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &memorizedLister{entries: entries}, nil
}
