package main

import (
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alnah/go-html2pdf"
)

func (c *cli) optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List recognized conversion options",
		Long: `List the option keys accepted by -O key=value, the config file
"options" section and the HTTP API.`,
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(c.env.Stdout, 0, 4, 2, ' ', 0)
			for _, key := range html2pdf.KnownOptions() {
				fmt.Fprintf(tw, "%s\t%s\n", key, html2pdf.OptionHelp(key))
			}
			return tw.Flush()
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintf(c.env.Stdout, "html2pdf %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(c.env.Stdout, "backends: %s\n", strings.Join(html2pdf.Backends(), ", "))
			return nil
		},
	}
}
