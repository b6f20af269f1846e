package grammar

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Dumper writes an indented outline of a parsed grammar
type Dumper struct {
	writer io.Writer
	indent string
}

// NewDumper creates a new dumper that writes to the given writer
func NewDumper(writer io.Writer) *Dumper {
	return &Dumper{
		writer: writer,
		indent: "",
	}
}

// NewStdoutDumper creates a new dumper that writes to stdout
func NewStdoutDumper() *Dumper {
	return NewDumper(os.Stdout)
}

// DumpFile dumps an entire grammar file
func (d *Dumper) DumpFile(file *File) {
	d.indent = ""
	fmt.Fprintf(d.writer, "File:\n")

	d.dumpDefinitions("Tokens", file.Tokens())
	d.dumpDefinitions("Fragments", file.Fragments())
}

func (d *Dumper) dumpDefinitions(title string, defs []*Definition) {
	if len(defs) == 0 {
		return
	}

	fmt.Fprintf(d.writer, "%s%s (%d):\n", d.indent, title, len(defs))
	for i, def := range defs {
		fmt.Fprintf(d.writer, "%s  %d: %s (line %d)\n", d.indent, i+1, def.Name, def.Pos.Line)
		d.dumpAlternation(def.Body, d.indent+"    ")
	}
}

func (d *Dumper) dumpAlternation(a *Alternation, indent string) {
	if len(a.Branches) == 1 {
		d.dumpSequence(a.Branches[0], indent)
		return
	}
	fmt.Fprintf(d.writer, "%sAlternation (%d):\n", indent, len(a.Branches))
	for _, seq := range a.Branches {
		d.dumpSequence(seq, indent+"  ")
	}
}

func (d *Dumper) dumpSequence(s *Sequence, indent string) {
	if len(s.Terms) == 1 {
		d.dumpTerm(s.Terms[0], indent)
		return
	}
	fmt.Fprintf(d.writer, "%sSequence (%d):\n", indent, len(s.Terms))
	for _, term := range s.Terms {
		d.dumpTerm(term, indent+"  ")
	}
}

func (d *Dumper) dumpTerm(t *Term, indent string) {
	suffix := strings.Join(t.Suffixes, "")
	switch {
	case t.Atom.Group != nil:
		fmt.Fprintf(d.writer, "%sGroup%s:\n", indent, suffix)
		d.dumpAlternation(t.Atom.Group, indent+"  ")
	case t.Atom.Anchor != "":
		fmt.Fprintf(d.writer, "%sAnchor %s\n", indent, t.Atom.Anchor)
	case t.Atom.Set != nil:
		parts := []string{describeOperand(t.Atom.Set.Base)}
		for _, op := range t.Atom.Set.Minus {
			parts = append(parts, describeOperand(op))
		}
		fmt.Fprintf(d.writer, "%s%s%s\n", indent, strings.Join(parts, ` \ `), suffix)
	}
}

func describeOperand(op *SetOperand) string {
	switch {
	case op.String != nil:
		return "String " + *op.String
	case op.Class != nil:
		return "Class " + *op.Class
	case op.Any:
		return "Any"
	default:
		return "Ref " + op.Ref
	}
}
