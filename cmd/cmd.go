package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/topicnews/internal/models"
	"github.com/xhad/topicnews/pkg/logging"
	"github.com/xhad/topicnews/pkg/relevance"
	"github.com/xhad/topicnews/pkg/topics"
	"github.com/xhad/topicnews/server"
)

// withApp loads configuration, builds the app and runs fn with it.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newsCmd(opts *options) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "news [topic]",
		Short: "Show relevant articles for a topic (default: selected topic)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				topic := a.topics.Selected()
				if len(args) == 1 {
					topic = args[0]
				}

				if explain {
					return explainTopic(ctx, a, topic)
				}

				spinner := getSpinner(fmt.Sprintf("Loading %s news...", topic))
				articles, err := a.news.Load(ctx, topic)
				spinner.Finish()
				if err != nil {
					logging.Error("load failed", "topic", topic, "err", err)
					return errors.New(server.FailureMessage)
				}

				printArticles(topic, articles)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Show the relevance score of every candidate")
	return cmd
}

func explainTopic(ctx context.Context, a *app, topic string) error {
	raw, err := a.client.Fetch(ctx, topic)
	if err != nil {
		return err
	}

	threshold := a.filter.Threshold()
	for i, article := range raw {
		score := a.filter.Score(topic, article)
		mark := color.RedString("✗")
		if a.filter.IsRelevant(topic, article) {
			mark = color.GreenString("✓")
		}
		title := relevance.Normalize(i, article, a.filter.Config().Location).Title
		fmt.Printf("%s %2d %.2f/%.2f %s\n", mark, i, score.Coverage, threshold, title)
		if score.PhraseMatch {
			fmt.Println(color.HiBlackString("       phrase match"))
		} else if len(score.Matched) > 0 {
			fmt.Println(color.HiBlackString("       matched: %s", strings.Join(score.Matched, ", ")))
		}
	}
	return nil
}

func printArticles(topic string, articles []models.NormalizedArticle) {
	if len(articles) == 0 {
		color.Yellow("No %s news found.", topic)
		return
	}

	color.Cyan("%s news (%d)\n", topic, len(articles))
	for _, a := range articles {
		fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(a.Title), color.HiBlackString("[%s]", a.ID))
		fmt.Printf("  %s\n", a.Description)
		fmt.Printf("  %s · %s\n", color.BlueString(a.Source), a.PublishedAt)
		if a.URL != "" {
			fmt.Printf("  %s\n", color.HiBlackString(a.URL))
		}
		fmt.Println()
	}
}

func topicsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage the topic list",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				printTopics(a.topics)
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <topic>",
		Short: "Add a topic and select it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.topics.Add(ctx, args[0]); err != nil {
					return err
				}
				printTopics(a.topics)
				return nil
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.topics.Rename(ctx, args[0], args[1]); err != nil {
					return err
				}
				printTopics(a.topics)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <topic>",
		Short: "Delete a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.topics.Delete(ctx, args[0]); err != nil {
					return err
				}
				printTopics(a.topics)
				return nil
			})
		},
	}

	sel := &cobra.Command{
		Use:   "select <topic>",
		Short: "Select the topic used by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.topics.Select(ctx, args[0]); err != nil {
					return err
				}
				printTopics(a.topics)
				return nil
			})
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest <text>",
		Short: "Suggest topics containing text",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range topics.Suggest(args[0]) {
				fmt.Println(s)
			}
		},
	}

	cmd.AddCommand(list, add, rename, del, sel, suggest)
	return cmd
}

func printTopics(m *topics.Manager) {
	state := m.State()
	for _, t := range state.Topics {
		if t == state.Selected {
			color.Green("* %s", t)
		} else {
			fmt.Printf("  %s\n", t)
		}
	}
}

func readCmd(opts *options) *cobra.Command {
	var summarize bool

	cmd := &cobra.Command{
		Use:   "read <url>",
		Short: "Fetch the full text of an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				r, err := a.reader()
				if err != nil {
					return err
				}

				spinner := getSpinner("Reading article...")
				page, err := r.Read(ctx, args[0])
				spinner.Finish()
				if err != nil {
					return err
				}

				color.New(color.Bold).Println(page.Title)
				fmt.Println(color.HiBlackString(page.URL))
				fmt.Println()

				if summarize {
					s, err := a.summarizer()
					if err != nil {
						return err
					}
					spinner := getSpinner("Summarizing...")
					summary, err := s.Summarize(ctx, models.NormalizedArticle{Title: page.Title, URL: page.URL}, page.Body)
					spinner.Finish()
					if err != nil {
						return err
					}
					color.Cyan("Summary")
					fmt.Printf("%s\n\n", summary)
				}

				fmt.Println(page.Body)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&summarize, "summarize", false, "Summarize the article with the configured LLM")
	return cmd
}

func relatedCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "related <query>",
		Short: "Search archived articles by similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if a.store == nil {
					return errors.New("related search requires database.url")
				}

				results, err := a.store.Related(ctx, strings.Join(args, " "), limit)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					color.Yellow("No archived articles yet.")
					return nil
				}
				for _, r := range results {
					fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(r.Title), color.HiBlackString("(%.3f)", r.Distance))
					fmt.Printf("  %s · %s · %s\n", color.BlueString(r.Source), r.Topic, r.ArchivedAt.Format("1/2/2006"))
					fmt.Printf("  %s\n\n", color.HiBlackString(r.URL))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Maximum number of results")
	return cmd
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve news over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				r, err := a.reader()
				if err != nil {
					return err
				}

				config := server.Config{
					Addr:           net.JoinHostPort("", a.cfg.Server.Port),
					AllowedOrigins: a.cfg.Server.AllowedOrigins,
					News:           a.news,
					Reader:         r,
					Logger:         logging.WithPrefix("server"),
				}
				if s, err := a.summarizer(); err != nil {
					logging.Warn("summaries disabled", "err", err)
				} else {
					config.Summarizer = s
				}
				if a.store != nil {
					config.Searcher = a.store
				}

				srv, err := server.New(config)
				if err != nil {
					return err
				}
				color.Green("Serving on :%s", a.cfg.Server.Port)
				return srv.ListenAndServe(ctx)
			})
		},
	}
}
