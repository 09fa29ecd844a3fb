package puzzle

// Resolver hit tests a pointer position against the drop targets.
type Resolver interface {
	Resolve(pointer Vector) (SlotRef, bool)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(pointer Vector) (SlotRef, bool)

func (f ResolverFunc) Resolve(pointer Vector) (SlotRef, bool) {
	return f(pointer)
}

// Rect is an axis aligned rectangle. Min is inclusive and Max exclusive.
type Rect struct {
	Min Vector
	Max Vector
}

func (r Rect) Contains(v Vector) bool {
	return v.X >= r.Min.X && v.X < r.Max.X && v.Y >= r.Min.Y && v.Y < r.Max.Y
}

type area struct {
	ref  SlotRef
	rect Rect
}

// RectResolver resolves pointers to the most recently added area containing them.
type RectResolver struct {
	areas []area
}

func NewRectResolver() *RectResolver {
	return &RectResolver{areas: nil}
}

func (r *RectResolver) Add(ref SlotRef, rect Rect) {
	r.areas = append(r.areas, area{ref: ref, rect: rect})
}

func (r *RectResolver) Resolve(pointer Vector) (SlotRef, bool) {
	for i := len(r.areas) - 1; i >= 0; i-- {
		if r.areas[i].rect.Contains(pointer) {
			return r.areas[i].ref, true
		}
	}
	return SlotRef{}, false
}
