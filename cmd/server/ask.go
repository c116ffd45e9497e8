package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MegaGrindStone/founder-web-ui/internal/models"
	"github.com/MegaGrindStone/founder-web-ui/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	topicColor  = color.New(color.FgCyan, color.Bold)
	statusColor = color.New(color.FgYellow)
	replyColor  = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed, color.Bold)
)

func newAskCommand(cfgPath *string) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "ask [idea]",
		Short: "Send one idea to the configured advisor and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseTopic(topic)
			if err != nil {
				return err
			}

			cfg, logger, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			advisor, err := cfg.Advisor.advisor(logger)
			if err != nil {
				return fmt.Errorf("error creating advisor: %w", err)
			}

			return ask(cmd.OutOrStdout(), session.Options{
				Advisor:  advisor,
				TipDelay: -1,
				Logger:   logger,
			}, t, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", string(models.TopicIdeation),
		fmt.Sprintf("advisory topic, one of %v", models.Topics))

	return cmd
}

// ask runs a single exchange through a throwaway session, so the reply is normalized and a failing advisor
// yields the same fallback text the web view shows.
func ask(out io.Writer, opts session.Options, topic models.Topic, idea string) error {
	opts.Listener = func(ev session.Event) {
		if ev.Kind == session.EventStatus {
			statusColor.Fprintln(out, topic.StatusLabel())
		}
	}

	s, err := session.New("", opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.SelectTopic(topic); err != nil {
		return err
	}

	topicColor.Fprintln(out, topic.Label())
	if !s.Submit(idea) {
		return errors.New("idea is blank")
	}
	s.Wait()

	log := s.Snapshot().Logs[topic]
	reply := log[len(log)-1]
	if reply.Text == session.FallbackReply {
		errorColor.Fprintln(out, reply.Text)
		return errors.New("advisor request failed")
	}
	replyColor.Fprintln(out, reply.Text)

	return nil
}
