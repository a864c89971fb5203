package paywall

import (
	"fmt"
	"html"
	"html/template"

	"github.com/paywall-split/paywall-split/internal/variant"
)

const (
	// OverrideAttr pins a variant on the mount point.
	OverrideAttr = "data-variant"

	// AssignedAttr is set on the mount point once a variant is resolved.
	AssignedAttr = "data-assigned-variant"

	DefaultContainerID = "paywall-container"
)

// Container is a server-rendered mount point.
type Container struct {
	ID       string
	Pinned   string
	Assigned variant.Variant
	Content  string
}

func NewContainer(id, pinned string) *Container {
	if id == "" {
		id = DefaultContainerID
	}
	return &Container{ID: id, Pinned: pinned}
}

func (c *Container) Override() string           { return c.Pinned }
func (c *Container) Annotate(v variant.Variant) { c.Assigned = v }
func (c *Container) Inject(markup string)       { c.Content = markup }

// HTML renders the container element with its attributes and content.
func (c *Container) HTML() template.HTML {
	attrs := fmt.Sprintf(`id="%s"`, html.EscapeString(c.ID))
	if c.Pinned != "" {
		attrs += fmt.Sprintf(` %s="%s"`, OverrideAttr, html.EscapeString(c.Pinned))
	}
	if c.Assigned != "" {
		attrs += fmt.Sprintf(` %s="%s"`, AssignedAttr, html.EscapeString(c.Assigned.String()))
	}
	// Content comes from the catalog's own templates.
	return template.HTML(fmt.Sprintf("<div %s>%s</div>", attrs, c.Content))
}
