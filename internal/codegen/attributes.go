package codegen

import (
	"strings"

	"github.com/tordrt/dbscaffold/internal/fragment"
	"github.com/tordrt/dbscaffold/internal/metadata"
)

const (
	dataAnnotations   = "System.ComponentModel.DataAnnotations"
	schemaAnnotations = "System.ComponentModel.DataAnnotations.Schema"
)

// entityAttribute is the class attribute equivalent to an entity call
func entityAttribute(c *fragment.MethodCall) (fragment.Attribute, bool) {
	switch c.Method {
	case "ToTable":
		if len(c.Args) == 0 || len(c.Args) > 2 || !isString(c.Args[0]) {
			return fragment.Attribute{}, false
		}
		attr := fragment.NewAttribute("Table", schemaAnnotations, c.Args[0])
		if len(c.Args) == 2 {
			if !isString(c.Args[1]) {
				return fragment.Attribute{}, false
			}
			attr = attr.With("Schema", c.Args[1])
		}
		return attr, true
	case "HasComment":
		return fragment.NewAttribute("Comment", efNamespace, c.Args...), true
	}
	return fragment.Attribute{}, false
}

// propertyAttribute is the member attribute equivalent to a property call.
// Column name and type share one attribute and are handled by the caller.
func propertyAttribute(p *metadata.Property, c *fragment.MethodCall) (fragment.Attribute, bool) {
	switch c.Method {
	case "IsRequired":
		return fragment.NewAttribute("Required", dataAnnotations), true
	case "HasMaxLength":
		if p.ClrType == "string" {
			return fragment.NewAttribute("StringLength", dataAnnotations, c.Args...), true
		}
		return fragment.NewAttribute("MaxLength", dataAnnotations, c.Args...), true
	case "HasPrecision":
		return fragment.NewAttribute("Precision", efNamespace, c.Args...), true
	case "IsUnicode":
		return fragment.NewAttribute("Unicode", efNamespace, c.Args...), true
	case "IsRowVersion":
		return fragment.NewAttribute("Timestamp", dataAnnotations), true
	case "IsConcurrencyToken":
		return fragment.NewAttribute("ConcurrencyCheck", dataAnnotations), true
	case "HasComment":
		return fragment.NewAttribute("Comment", efNamespace, c.Args...), true
	}
	return fragment.Attribute{}, false
}

func joinNames(names []string) string {
	return strings.Join(names, ",")
}
