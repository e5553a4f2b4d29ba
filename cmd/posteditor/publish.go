package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/posteditor/images"
	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/publish"
)

func newPublishCmd() *cobra.Command {
	var (
		variant string
		req     publish.Request
		files   []string
	)

	cmd := &cobra.Command{
		Use:   "publish [FILE]",
		Short: "Commit a post to the site repository",
		Long: `Publish reads a markdown body from FILE, or stdin when FILE is "-" or
omitted, and commits it as a post. The create and edit variants open a pull
request; edit-in-pr commits onto the branch of the pull request whose head is
--ref. Images given with --image are committed when the body references them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := publish.ParseVariant(variant)
			if err != nil {
				return err
			}
			req.Variant = v
			if req.Body, err = readInput(cmd, args); err != nil {
				return err
			}

			mgr := images.NewMemory()
			for _, name := range files {
				if err := addImage(mgr, name); err != nil {
					return err
				}
			}

			cfg := getConfig(cmd)
			client, err := newRepositoryClient(cfg)
			if err != nil {
				return err
			}
			logger := log.New("publish")
			logger.SetLevel(log.WARN)
			pub := publish.New(client, markdown.New(cfg.MarkdownConfig()), cfg.PublishConfig(), publish.WithLogger(logger))

			res, err := pub.Publish(cmd.Context(), req, mgr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s on %s (%s)\n", res.Variant, res.FilePath, res.Branch, res.CommitSHA)
			for _, img := range res.Images {
				fmt.Fprintf(out, "  + %s\n", img)
			}
			if res.PullRequest != nil {
				fmt.Fprintf(out, "pull request #%d %s\n", res.PullRequest.Number, res.PullRequest.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", publish.Create.String(), "create, edit or edit-in-pr")
	cmd.Flags().StringVar(&req.Title, "title", "", "post title")
	cmd.Flags().StringVar(&req.Author, "author", "", "post author")
	cmd.Flags().StringVar(&req.Tags, "tags", "", "comma separated tags")
	cmd.Flags().StringVar(&req.Overlay, "overlay", "", "hero overlay color")
	cmd.Flags().StringVar(&req.Hero, "hero", "", "hero image URL (default: the configured default hero)")
	cmd.Flags().StringVar(&req.FilePath, "file-path", "", "repository path of the post to edit")
	cmd.Flags().StringVar(&req.Ref, "ref", "", "head sha of the pull request holding the post")
	cmd.Flags().StringSliceVar(&files, "image", nil, "local image to upload (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func addImage(mgr *images.Memory, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := mgr.Add(filepath.Base(name), f); err != nil {
		return fmt.Errorf("image %s: %w", name, err)
	}
	return nil
}
