package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/dictionary"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "signmeup",
		Short:         "Sign language interpreter tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newDictCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Inspect symbol dictionaries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a YAML or TOML dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dictionary.Load(args[0])
			if err != nil {
				return err
			}
			s := d.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "dictionary valid: %s -> %s, %d labels, %d translations, %d hidden, %d modifiers, %d activators\n",
				d.SourceLanguage(), d.TargetLanguage(), s.Labels, s.Translations, s.Hidden, s.Modifiers, s.Activators)
			return nil
		},
	})

	var dictPath string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the dictionary as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dictionary.LoadOrDefault(dictPath)
			if err != nil {
				return err
			}
			return printDictionary(cmd, d)
		},
	}
	show.Flags().StringVar(&dictPath, "dict", "", "dictionary file (default: built-in table)")
	cmd.AddCommand(show)

	return cmd
}

func printDictionary(cmd *cobra.Command, d *dictionary.Dictionary) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "INDEX\t%s\t%s\tNOTES\n", d.SourceLanguage(), d.TargetLanguage())
	for i, label := range d.Labels() {
		note := ""
		if d.IsHidden(label) {
			note = "hidden"
		}
		if base, ok := d.ModifierBase(label); ok {
			note = "replaces " + string(base)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, label, d.Translate(string(label)), note)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	var combos []string
	labels := d.Labels()
	for _, prev := range labels {
		for _, cur := range labels {
			if result, ok := d.Activator(prev, cur); ok {
				combos = append(combos, fmt.Sprintf("%s + %s = %s (%s)", prev, cur, result, d.Translate(string(result))))
			}
		}
	}
	sort.Strings(combos)
	if len(combos) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\ncombinations:")
		for _, c := range combos {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+c)
		}
	}
	return nil
}
