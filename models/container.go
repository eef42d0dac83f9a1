package models

// Container is a bag of items bounded by item count and total volume.
type Container struct {
	MaxVolume float32 `json:"max_volume"`
	MaxCount  int     `json:"max_count"`
	Items     []*Item `json:"items"`
}

// NewContainer creates an empty container.
func NewContainer(maxVolume float32, maxCount int) *Container {
	return &Container{MaxVolume: maxVolume, MaxCount: maxCount}
}

// Store appends item if both the count and the volume limits still hold
// afterwards. A refused item leaves the container unchanged.
func (c *Container) Store(item *Item) bool {
	if item == nil {
		return false
	}
	if len(c.Items) >= c.MaxCount {
		return false
	}
	if c.Volume()+item.Volume > c.MaxVolume {
		return false
	}
	c.Items = append(c.Items, item)
	return true
}

// Remove takes item out of the container. It reports whether it was present.
func (c *Container) Remove(item *Item) bool {
	for i, it := range c.Items {
		if it == item {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Count is the number of items held.
func (c *Container) Count() int {
	return len(c.Items)
}

// Volume is the sum of the held items' volumes.
func (c *Container) Volume() float32 {
	var total float32
	for _, it := range c.Items {
		total += it.Volume
	}
	return total
}

// First returns the first item of the given kind, or nil.
func (c *Container) First(kind ItemKind) *Item {
	for _, it := range c.Items {
		if it.Kind == kind {
			return it
		}
	}
	return nil
}
