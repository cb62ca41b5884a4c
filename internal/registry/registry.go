package registry

import "github.com/alphadose/haxmap"

// Registry is a concurrency-safe name to value lookup.
type Registry[T any] interface {
	Get(name string) (T, bool)
	Add(name string, value T)
	Keys() []string
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

func (r *registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

func (r *registry[T]) Add(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) Keys() []string {
	keys := make([]string, 0, r.values.Len())
	r.values.ForEach(func(name string, _ T) bool {
		keys = append(keys, name)
		return true
	})
	return keys
}
