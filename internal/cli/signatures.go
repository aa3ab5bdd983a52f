package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/gobeaver/filesniff/signature"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// signatureView is the printable form of a rule or heuristic
type signatureView struct {
	Order     int    `json:"order" yaml:"order"`
	Kind      string `json:"kind" yaml:"kind"`
	TypeName  string `json:"type" yaml:"type"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	MIME      string `json:"mime" yaml:"mime"`
	Offset    int    `json:"offset" yaml:"offset"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NewSignaturesCommand creates the signatures command
func NewSignaturesCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "signatures",
		Short: "List the built-in signatures and heuristics",
		Long: `List the signature rules in evaluation order, followed by the heuristics
tried when no rule matches. On equal-length matches the earlier rule wins.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignatures(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json, yaml")

	return cmd
}

func runSignatures(cmd *cobra.Command, output string) error {
	var views []signatureView
	for i, rule := range signature.DefaultRegistry().Rules() {
		views = append(views, signatureView{
			Order:     i + 1,
			Kind:      "signature",
			TypeName:  rule.TypeName,
			Extension: rule.Extension,
			MIME:      rule.MIME,
			Offset:    rule.Offset,
			Pattern:   hex.EncodeToString(rule.Pattern),
		})
	}
	for i, h := range signature.Heuristics() {
		views = append(views, signatureView{
			Order:    i + 1,
			Kind:     "heuristic",
			TypeName: h.TypeName,
			MIME:     h.MIME,
			Name:     h.Name,
		})
	}

	out := cmd.OutOrStdout()
	switch output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	case "text":
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tEXT\tMIME\tOFFSET\tPATTERN")
	for _, v := range views {
		if v.Kind != "signature" {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", v.Order, v.TypeName, v.Extension, v.MIME, v.Offset, v.Pattern)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nHeuristics (tried when no signature matches):")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, v := range views {
		if v.Kind == "heuristic" {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Order, v.Name, v.TypeName, v.MIME)
		}
	}
	return tw.Flush()
}
