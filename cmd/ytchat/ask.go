package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gopherai-ytchat/internal/app"
	"gopherai-ytchat/internal/bootstrap"
	"gopherai-ytchat/internal/config"
	"gopherai-ytchat/internal/pkg/logger"
)

func askCMD() *cobra.Command {
	var (
		transcriptFile string
		questions      []string
		topK           int
	)
	cmd := &cobra.Command{
		Use:   "ask <youtube-url-or-id>",
		Short: "Load a video and answer questions about it",
		Long: "Loads the video's captions (or --transcript-file) into a local session and answers " +
			"each --question in order. Without --question, questions are read from stdin, one per line.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && transcriptFile == "" {
				return fmt.Errorf("a video url or --transcript-file is required")
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.Sessions.Create()
			load, err := loadInto(cmd.Context(), a, sess.ID, args, transcriptFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %s: %d characters in %d chunks\n\n", load.VideoID, load.Length, load.ChunkCount)

			ask := func(q string) error {
				res, failure := a.Service.Ask(cmd.Context(), app.AskInput{SessionID: sess.ID, Question: q, TopK: topK}).Unwrap()
				if failure != nil {
					return fmt.Errorf("%s: %s", failure.Kind, failure.Message)
				}
				fmt.Fprintf(out, "Q: %s\nA: %s\n\n", q, res.Answer)
				return nil
			}

			if len(questions) > 0 {
				for _, q := range questions {
					if err := ask(q); err != nil {
						return err
					}
				}
				return nil
			}
			return askFromReader(cmd.InOrStdin(), cmd.ErrOrStderr(), ask)
		},
	}
	cmd.Flags().StringVarP(&transcriptFile, "transcript-file", "f", "", "read the transcript from a file instead of YouTube")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to ask; repeatable")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "excerpts to retrieve per question (0 uses the configured default)")
	return cmd
}

func transcriptCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <youtube-url-or-id>",
		Short: "Print the caption transcript of a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := a.Sessions.Create()
			load, failure := a.Service.LoadVideo(cmd.Context(), app.LoadVideoInput{SessionID: sess.ID, YouTubeURL: args[0]}).Unwrap()
			if failure != nil {
				return fmt.Errorf("%s: %s", failure.Kind, failure.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), load.Transcript)
			return nil
		},
	}
}

func buildApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	// archive pipeline is server-only
	cfg.RabbitMQ.Enabled = false
	cfg.MySQL.Enabled = false
	return bootstrap.Build(ctx, cfg)
}

func loadInto(ctx context.Context, a *bootstrap.App, sessionID string, args []string, transcriptFile string) (*app.LoadOutput, error) {
	var res app.Result[*app.LoadOutput]
	if transcriptFile != "" {
		raw, err := os.ReadFile(transcriptFile)
		if err != nil {
			return nil, fmt.Errorf("read transcript file failed: %w", err)
		}
		videoID := transcriptFile
		if len(args) > 0 {
			videoID = args[0]
		}
		res = a.Service.LoadTranscript(ctx, app.LoadInput{SessionID: sessionID, VideoID: videoID, Transcript: string(raw)})
	} else {
		res = a.Service.LoadVideo(ctx, app.LoadVideoInput{SessionID: sessionID, YouTubeURL: args[0]})
	}
	load, failure := res.Unwrap()
	if failure != nil {
		return nil, fmt.Errorf("%s: %s", failure.Kind, failure.Message)
	}
	return load, nil
}

func askFromReader(in io.Reader, prompt io.Writer, ask func(string) error) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(prompt, "> ")
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q != "" {
			if err := ask(q); err != nil {
				fmt.Fprintln(prompt, err)
			}
		}
		fmt.Fprint(prompt, "> ")
	}
	return scanner.Err()
}
