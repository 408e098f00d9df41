package view

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"sigs.k8s.io/yaml"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write renders s in one of the supported formats. A nil section writes
// nothing in text mode and "null" in the structured ones.
func Write(w io.Writer, format string, s *Section) error {
	switch format {
	case "", FormatText:
		return WriteText(w, s)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		return WriteYAML(w, s)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func WriteYAML(w io.Writer, s *Section) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func WriteText(w io.Writer, s *Section) error {
	if s == nil {
		return nil
	}

	fmt.Fprintf(w, "%s\n", s.Title)
	if s.Warning != "" {
		fmt.Fprintf(w, "WARNING: %s\n", s.Warning)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "ERROR: %s\n", s.Error)
	}
	if s.Empty != "" {
		fmt.Fprintf(w, "%s\n", s.Empty)
	} else if s.Loading {
		fmt.Fprintf(w, "%s\n", LoadingMessage)
	}

	if s.Table != nil {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSTATUS\tAGE\tNODE")
		for _, r := range s.Table.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Status, r.Age, r.Node)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if s.LoadMore != nil {
		fmt.Fprintf(w, "%s, use --all to show every pod\n", s.LoadMore.Label)
	}
	return nil
}
