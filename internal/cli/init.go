package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/paywall-split/paywall-split/internal/snippets"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Pick a split, print the embed snippet and start the server",
	Long: `Choose how traffic is split between paywall variants, print the code to
embed the paywall on your site and start the server.

Example:
  paywall-split init
  paywall-split init --port 8080`,
	RunE: runInit,
}

type preset struct {
	Label        string
	Distribution string
}

var presets = []preset{
	{"A/B - 50/50", "50,50"},
	{"A/B/C - even thirds", "34,33,33"},
	{"A/B/C/D - 25% each", "25,25,25,25"},
	{"Champion/challenger - 90/10", "90,10"},
}

func init() {
	addServeFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if distribution == "" {
		d, err := promptDistribution()
		if err != nil {
			return err
		}
		distribution = d
	}

	framework, err := promptFramework()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := printSnippet(os.Stdout, framework, cfg.LocalURL(), cfg.Distribution, cfg.CookieName, cfg.Container); err != nil {
		return err
	}

	return serve(cmd.Context(), cfg)
}

func promptDistribution() (string, error) {
	labels := make([]string, len(presets))
	for i, p := range presets {
		labels[i] = p.Label
	}

	prompt := promptui.Select{
		Label: "Traffic split",
		Items: labels,
		Size:  len(labels),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return presets[idx].Distribution, nil
}

func promptFramework() (snippets.Framework, error) {
	labels := make([]string, len(snippets.Frameworks))
	for i, f := range snippets.Frameworks {
		labels[i] = f.Label()
	}

	prompt := promptui.Select{
		Label: "Your framework",
		Items: labels,
		Size:  len(labels),
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return snippets.Frameworks[idx], nil
}

func printSnippet(w io.Writer, framework snippets.Framework, serverURL, dist, cookie, container string) error {
	files, err := snippets.Generate(framework, snippets.Config{
		ServerURL:    serverURL,
		Distribution: dist,
		CookieName:   cookie,
		Container:    container,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Add this to your site (split %s):\n", dist)
	for _, f := range files {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", f.Filename)
		fmt.Fprintln(w)
		for _, line := range strings.Split(strings.TrimRight(f.Content, "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  results          Show impressions and conversions per variant")
	fmt.Fprintln(w, "  export           Export raw events")
	fmt.Fprintln(w, "  simulate         Check how a split distributes visitors")
	fmt.Fprintln(w)
	return nil
}
