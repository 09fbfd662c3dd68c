package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/goliatone/go-wikisync/cmd/wikisync/internal/bootstrap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var moduleBuilder = bootstrap.BuildModule

type app struct {
	v       *viper.Viper
	cfgFile string
	debug   bool
	labels  []string
	out     io.Writer
	errOut  io.Writer
}

// flagKeys maps CLI flags onto configuration keys.
var flagKeys = map[string]string{
	"conf-endpoint": "confluence.endpoint",
	"conf-user":     "confluence.user",
	"conf-pass":     "confluence.password",
	"log-format":    "logging.format",
	"log-provider":  "logging.provider",
	"dry-run":       "publish.dry_run",
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      bootstrap.NewViper(),
		out:    out,
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:   "wikisync [path]",
		Short: "Publish a tree of markdown documents to Confluence",
		Long: `wikisync turns markdown files with front matter into Confluence pages.

Every file carrying a c_title key becomes a page. Pages are created or
updated, their labels replaced and their local images and files uploaded
as attachments. Files without front matter are ignored.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runPublish,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./wikisync.yaml or ~/.config/wikisync/wikisync.yaml)")
	flags.String("conf-endpoint", "https://confluence.example.com", "Confluence base URL [env CONFLUENCE_ENDPOINT]")
	flags.String("conf-user", "", "Confluence user [env CONFLUENCE_USER]")
	flags.String("conf-pass", "", "Confluence password or token [env CONFLUENCE_PASS]")
	flags.BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")
	flags.String("log-format", "", "go-logger output format: json, console or pretty")
	flags.String("log-provider", "console", "logging provider: console or gologger")
	flags.Bool("dry-run", false, "publish into an in-memory store instead of Confluence")
	bindFlags(a.v, flags)

	addLabelsFlag(root, a)

	publishCmd := &cobra.Command{
		Use:   "publish [path]",
		Short: "Publish markdown documents (the default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runPublish,
	}
	addLabelsFlag(publishCmd, a)

	watchCmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Publish, then publish again whenever a document or attachment changes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runWatch,
	}
	addLabelsFlag(watchCmd, a)

	root.AddCommand(publishCmd, watchCmd, newRenderCmd(a), newVersionCmd(a))
	return root
}

func addLabelsFlag(cmd *cobra.Command, a *app) {
	cmd.Flags().StringSliceVarP(&a.labels, "labels", "l", nil, "labels added to every page (repeatable, comma separated)")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range flagKeys {
		if flag := flags.Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
}

func (a *app) build(offline bool) (*bootstrap.Module, error) {
	module, err := moduleBuilder(bootstrap.Options{
		ConfigFile: a.cfgFile,
		Viper:      a.v,
		Debug:      a.debug,
		Offline:    offline,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return module, nil
}

func pathArg(args []string) string {
	if len(args) == 1 && args[0] != "" {
		return args[0]
	}
	return "."
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "wikisync %s\n", version)
		},
	}
}
