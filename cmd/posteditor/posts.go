package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/posteditor"
	"github.com/eringen/posteditor/markdown"
	"github.com/eringen/posteditor/post"
	"github.com/eringen/posteditor/repository"
)

type postSummary struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
	FilePath string   `json:"file_path"`
	Ref      string   `json:"ref,omitempty"`
	Images   int      `json:"images"`
}

func newPostsCmd() *cobra.Command {
	var (
		inPRs  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List the site's posts",
		Long: `List the posts on the base branch, or with --pr the posts changed by
the editor's open pull requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newRepositoryClient(getConfig(cmd))
			if err != nil {
				return err
			}

			var posts []*post.Post
			if inPRs {
				posts, err = client.ListPostsInOpenPRs(cmd.Context(), nil)
			} else {
				posts, err = client.ListPosts(cmd.Context(), nil)
			}
			if err != nil {
				return err
			}

			summaries := make([]postSummary, 0, len(posts))
			for _, p := range posts {
				summaries = append(summaries, postSummary{
					Title:    p.Title,
					Author:   p.Author,
					Tags:     p.Tags,
					FilePath: p.FilePath,
					Ref:      p.GitHubRef,
					Images:   len(p.Images),
				})
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			return printPosts(cmd.OutOrStdout(), summaries)
		},
	}

	cmd.Flags().BoolVar(&inPRs, "pr", false, "list posts in the editor's open pull requests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printPosts(w io.Writer, posts []postSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTITLE\tAUTHOR\tTAGS\tREF")
	for _, p := range posts {
		ref := p.Ref
		if ref == "" {
			ref = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.FilePath, p.Title, p.Author, post.JoinTags(p.Tags), ref)
	}
	return tw.Flush()
}

func newRepositoryClient(cfg posteditor.Config) (*repository.Client, error) {
	repoCfg, err := cfg.RepositoryConfig()
	if err != nil {
		return nil, err
	}
	logger := log.New("posteditor")
	logger.SetLevel(log.WARN)
	opts := []repository.Option{
		repository.WithEngine(markdown.New(cfg.MarkdownConfig())),
		repository.WithLogger(logger),
	}
	if cfg.GitHub.BaseURL != "" {
		opts = append(opts, repository.WithBaseURL(cfg.GitHub.BaseURL))
	}
	return repository.New(repoCfg, opts...)
}
