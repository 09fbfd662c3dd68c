package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <file>",
		Short: "Print the storage markup and attachments of one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := a.build(true)
			if err != nil {
				return a.fail(err)
			}
			doc, err := module.Module.Render(args[0])
			if err != nil {
				return a.fail(err)
			}

			media := make([]string, 0, len(doc.Media))
			for _, m := range doc.Media {
				media = append(media, m.Name)
			}
			fmt.Fprintf(a.out, "Path: %s\n", doc.Path)
			fmt.Fprintf(a.out, "Title: %s\n", joinOrDash(nonEmpty(doc.Title)))
			fmt.Fprintf(a.out, "Space: %s\n", doc.Space)
			fmt.Fprintf(a.out, "Parent: %s\n", joinOrDash(nonEmpty(doc.Parent)))
			fmt.Fprintf(a.out, "Labels: %s\n", joinOrDash(doc.Labels.Slice()))
			fmt.Fprintf(a.out, "Attachments: %s\n", joinOrDash(media))
			if !doc.IsPublishable() {
				fmt.Fprintln(a.out, "Publishable: no (missing c_title)")
			}
			fmt.Fprintf(a.out, "\n%s\n", doc.Markup)
			return nil
		},
	}
}

func nonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}
