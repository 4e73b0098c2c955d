package mmsclient

import (
	"fmt"
	"strings"
)

// Pretty Stringers with indentation starting at top node "DataModel"

// indent returns a string with two-space indentation repeated level times.
func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("  ", level)
}

// DataModel stringer prints the full hierarchical data model.
func (dm DataModel) String() string {
	var b strings.Builder
	b.WriteString("DataModel\n")
	for _, ld := range dm.LDs {
		ld.writeTo(&b, 1)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (ld LD) String() string {
	var b strings.Builder
	ld.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (ld LD) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "LD: " + ld.Data + "\n")
	for _, ln := range ld.LNs {
		ln.writeTo(b, level+1)
	}
}

func (ln LN) String() string {
	var b strings.Builder
	ln.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (ln LN) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "LN: " + ln.Data + "\n")
	for _, d := range ln.DOs {
		d.writeTo(b, level+1)
	}
	for _, ds := range ln.DSs {
		ds.writeTo(b, level+1)
	}
	for _, r := range ln.URReports {
		r.writeTo(b, level+1)
	}
	for _, r := range ln.BRReports {
		r.writeTo(b, level+1)
	}
}

func (r URReport) String() string {
	var b strings.Builder
	r.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (r URReport) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "URReport: " + r.Data + "\n")
}

func (r BRReport) String() string {
	var b strings.Builder
	r.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (r BRReport) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "BRReport: " + r.Data + "\n")
}

func (ds DS) String() string {
	var b strings.Builder
	ds.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (ds DS) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "DS: " + ds.Ref)
	if ds.IsDeletable {
		b.WriteString(" (deletable)\n")
	} else {
		b.WriteString(" (not deletable)\n")
	}
	for _, ref := range ds.DSRefs {
		ref.writeTo(b, level+1)
	}
}

func (ref DSRef) String() string {
	var b strings.Builder
	ref.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (ref DSRef) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "DSRef: " + ref.Data + "\n")
}

func (d DO) String() string {
	var b strings.Builder
	d.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (d DO) writeTo(b *strings.Builder, level int) {
	b.WriteString(indent(level) + "DO: " + d.Data + "\n")
	if len(d.DAs) == 0 {
		b.WriteString(indent(level+1) + "(no attributes)\n")
	}
	for _, da := range d.DAs {
		da.writeTo(b, level+1)
	}
}

func (da DA) String() string {
	var b strings.Builder
	da.writeTo(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (da DA) writeTo(b *strings.Builder, level int) {
	fmt.Fprintf(b, "%sDA: %s [%s]", indent(level), da.Data, da.FC)
	if da.Value != nil {
		b.WriteString(" = " + nodeText(da.Value))
	}
	b.WriteString("\n")
	for _, child := range da.DAs {
		child.writeTo(b, level+1)
	}
}

// nodeText renders a value on a single line for the tree stringers.
func nodeText(n Node) string {
	if !n.Valid() {
		return "<" + n.Reason() + ">"
	}
	switch v := n.(type) {
	case FloatNode:
		return fmt.Sprintf("%g", v.Value)
	case IntegerNode:
		if v.Enum != "" {
			return fmt.Sprintf("%d (%s)", v.Value, v.Enum)
		}
		return fmt.Sprintf("%d", v.Value)
	case BooleanNode:
		return fmt.Sprintf("%t", v.Value)
	case StringNode:
		return fmt.Sprintf("%q", v.Value)
	case TimestampNode:
		return v.String()
	case BitStringNode:
		return v.String()
	case StructureNode:
		parts := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			parts = append(parts, f.Name+": "+nodeText(f.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ArrayNode:
		parts := make([]string, 0, len(v.Elements))
		for _, el := range v.Elements {
			parts = append(parts, nodeText(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v", n)
}
