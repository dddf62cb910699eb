package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
	"reelsmith/internal/studio"
)

func newIdeasCommand(ctx *commandContext) *cobra.Command {
	var count int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ideas <topic>",
		Short: "Brainstorm short-video ideas for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			resp, err := ctx.generate(
				func(client *ipc.Client) (*ipc.GenerationResponse, error) {
					return client.GenerateIdeas(ipc.IdeasRequest{Topic: topic, Count: count})
				},
				func(runCtx context.Context, svc *studio.Service) (any, error) {
					return svc.BrainstormIdeas(runCtx, studio.IdeaRequest{Topic: topic, Count: count})
				})
			if err != nil {
				return err
			}
			if failed := renderFailure(cmd, resp); failed {
				return errGenerationFailed
			}
			if jsonOut {
				return writeRawJSON(cmd, resp.ResultJSON)
			}
			var set studio.IdeaSet
			if err := json.Unmarshal([]byte(resp.ResultJSON), &set); err != nil {
				return fmt.Errorf("decode idea set: %w", err)
			}
			rows := make([][]string, 0, len(set.Ideas))
			for i, idea := range set.Ideas {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), idea.Title, idea.Hook})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Title", "Hook"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s\n", resp.RequestID)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "Number of ideas to request")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	var duration int
	var tone string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "script <idea>",
		Short: "Draft a short-video script for an idea",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea := strings.Join(args, " ")
			resp, err := ctx.generate(
				func(client *ipc.Client) (*ipc.GenerationResponse, error) {
					return client.GenerateScript(ipc.ScriptRequest{
						Idea:            idea,
						DurationSeconds: duration,
						Tone:            tone,
					})
				},
				func(runCtx context.Context, svc *studio.Service) (any, error) {
					return svc.DraftScript(runCtx, studio.ScriptRequest{
						Idea:            idea,
						DurationSeconds: duration,
						Tone:            tone,
					})
				})
			if err != nil {
				return err
			}
			if failed := renderFailure(cmd, resp); failed {
				return errGenerationFailed
			}
			if jsonOut {
				return writeRawJSON(cmd, resp.ResultJSON)
			}
			var script studio.Script
			if err := json.Unmarshal([]byte(resp.ResultJSON), &script); err != nil {
				return fmt.Errorf("decode script: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\nHook: %s\n\n", script.Title, script.Hook)
			for i, scene := range script.Scenes {
				fmt.Fprintf(out, "Scene %d (%ds)\n  Narration: %s\n  Visual: %s\n",
					i+1, scene.DurationSeconds, scene.Narration, scene.Visual)
			}
			if script.CallToAction != "" {
				fmt.Fprintf(out, "\nCall to action: %s\n", script.CallToAction)
			}
			fmt.Fprintf(out, "\nRequest %s\n", resp.RequestID)
			return nil
		},
	}
	cmd.Flags().IntVar(&duration, "duration", 60, "Target runtime in seconds")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone of voice for the script")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newImageCommand(ctx *commandContext) *cobra.Command {
	var style string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate a still image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			resp, err := ctx.generate(
				func(client *ipc.Client) (*ipc.GenerationResponse, error) {
					return client.GenerateImage(ipc.ImageRequest{Prompt: prompt, Style: style})
				},
				func(runCtx context.Context, svc *studio.Service) (any, error) {
					return svc.GenerateImage(runCtx, studio.ImageRequest{Prompt: prompt, Style: style})
				})
			if err != nil {
				return err
			}
			if failed := renderFailure(cmd, resp); failed {
				return errGenerationFailed
			}
			if jsonOut {
				return writeRawJSON(cmd, resp.ResultJSON)
			}
			var asset studio.ImageAsset
			if err := json.Unmarshal([]byte(resp.ResultJSON), &asset); err != nil {
				return fmt.Errorf("decode image asset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d bytes)\nRequest %s\n",
				asset.Path, asset.MIME, asset.Bytes, resp.RequestID)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "Visual style hint")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newAssessCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "assess <description>",
		Short: "Assess a described cut of a video",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			resp, err := ctx.generate(
				func(client *ipc.Client) (*ipc.GenerationResponse, error) {
					return client.Assess(ipc.AssessRequest{Description: description})
				},
				func(runCtx context.Context, svc *studio.Service) (any, error) {
					return svc.AssessMedia(runCtx, studio.AssessmentRequest{Description: description})
				})
			if err != nil {
				return err
			}
			if failed := renderFailure(cmd, resp); failed {
				return errGenerationFailed
			}
			if jsonOut {
				return writeRawJSON(cmd, resp.ResultJSON)
			}
			var assessment studio.Assessment
			if err := json.Unmarshal([]byte(resp.ResultJSON), &assessment); err != nil {
				return fmt.Errorf("decode assessment: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score: %d/10\n", assessment.Score)
			printList(out, "Strengths", assessment.Strengths)
			printList(out, "Weaknesses", assessment.Weaknesses)
			printList(out, "Suggestions", assessment.Suggestions)
			fmt.Fprintf(out, "\nRequest %s\n", resp.RequestID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var assets []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "plan <script>",
		Short: "Plan an edit for a script and asset list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := strings.Join(args, " ")
			resp, err := ctx.generate(
				func(client *ipc.Client) (*ipc.GenerationResponse, error) {
					return client.Plan(ipc.PlanRequest{Script: script, Assets: assets})
				},
				func(runCtx context.Context, svc *studio.Service) (any, error) {
					return svc.PlanEdit(runCtx, studio.EditPlanRequest{Script: script, Assets: assets})
				})
			if err != nil {
				return err
			}
			if failed := renderFailure(cmd, resp); failed {
				return errGenerationFailed
			}
			if jsonOut {
				return writeRawJSON(cmd, resp.ResultJSON)
			}
			var plan studio.EditPlan
			if err := json.Unmarshal([]byte(resp.ResultJSON), &plan); err != nil {
				return fmt.Errorf("decode edit plan: %w", err)
			}
			rows := make([][]string, 0, len(plan.Steps))
			for _, step := range plan.Steps {
				rows = append(rows, []string{
					fmt.Sprintf("%d", step.Order),
					step.Asset,
					step.Action,
					fmt.Sprintf("%ds", step.DurationSeconds),
					step.Notes,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Asset", "Action", "Duration", "Notes"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(cmd.OutOrStdout(), "Request %s\n", resp.RequestID)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&assets, "asset", nil, "Available asset (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}
