package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/eringen/posteditor/markdown"
)

func newRenderCmd() *cobra.Command {
	var title, author, tags, overlay, hero string

	cmd := &cobra.Command{
		Use:   "render [FILE]",
		Short: "Print the Jekyll post file for a markdown body",
		Long: `Render reads a markdown body from FILE, or stdin when FILE is "-" or
omitted, and prints the complete post file the editor would commit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine := markdown.New(getConfig(cmd).MarkdownConfig())
			_, err = io.WriteString(cmd.OutOrStdout(), engine.BuildPostText(body, author, title, tags, overlay, hero))
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&author, "author", "", "post author")
	cmd.Flags().StringVar(&tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&overlay, "overlay", "", "hero overlay color")
	cmd.Flags().StringVar(&hero, "hero", "", "hero image URL (default: the configured default hero)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview [FILE]",
		Short: "Print the HTML preview of a markdown body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			engine := markdown.New(getConfig(cmd).MarkdownConfig())
			html, err := engine.RenderPreview(body, nil)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), html)
			return err
		},
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}
