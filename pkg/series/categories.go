package series

import "fmt"

// Categories is an ordered registry of distinct category labels. A label's
// position is its numeric x.
type Categories struct {
	labels []string
	index  map[string]int
}

// NewCategories returns a registry seeded with labels. Duplicates keep their
// first position.
func NewCategories(labels ...string) *Categories {
	c := &Categories{index: make(map[string]int, len(labels))}
	for _, l := range labels {
		c.Position(l)
	}
	return c
}

// Position returns the position of label, appending it when unseen.
func (c *Categories) Position(label string) int {
	if i, ok := c.index[label]; ok {
		return i
	}
	i := len(c.labels)
	c.labels = append(c.labels, label)
	c.index[label] = i
	return i
}

// Labels returns a copy of the labels in first-seen order.
func (c *Categories) Labels() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.labels...)
}

// Len returns the number of labels.
func (c *Categories) Len() int {
	if c == nil {
		return 0
	}
	return len(c.labels)
}

func (c *Categories) clone() *Categories {
	if c == nil {
		return NewCategories()
	}
	return NewCategories(c.labels...)
}

// categoryLabel turns a raw x cell into a registry label.
func categoryLabel(raw any) string {
	switch t := raw.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t)
	default:
		return fmt.Sprint(t)
	}
}
