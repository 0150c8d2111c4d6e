package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aawohq/aawo/adapter/api"
	"github.com/aawohq/aawo/internal/app"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = cfg.HTTPAddr
		server := api.NewServer(serverCfg, buildHandlers(container), container.Health, logger)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func buildHandlers(c *app.Container) api.Handlers {
	return api.Handlers{
		Tasks: api.NewTaskHandler(
			c.CreateTaskHandler, c.UpdateTaskHandler, c.ChangeTaskStatusHandler,
			c.DeleteTaskHandler, c.GetTaskHandler, c.ListTasksHandler, c.Logger),
		Projects: api.NewProjectHandler(
			c.CreateProjectHandler, c.UpdateProjectHandler, c.DeleteProjectHandler,
			c.GetProjectHandler, c.ListProjectsHandler, c.Logger),
		Schedule: api.NewScheduleHandler(api.ScheduleHandlerConfig{
			CreateBlock:   c.CreateBlockHandler,
			MoveBlock:     c.MoveBlockHandler,
			DeleteBlock:   c.DeleteBlockHandler,
			Generate:      c.GenerateProposalHandler,
			Applier:       c.ProposalApplier,
			GetBlock:      c.GetBlockHandler,
			ListBlocks:    c.ListBlocksHandler,
			FreeSlots:     c.FreeSlotsHandler,
			GetProposal:   c.GetProposalHandler,
			ListProposals: c.ListProposalsHandler,
			Logger:        c.Logger,
		}),
		Meetings: api.NewMeetingHandler(
			c.IngestMeetingHandler, c.GetMeetingHandler, c.ListMeetingsHandler,
			c.ListCandidatesHandler, c.Logger),
		Approvals: api.NewApprovalHandler(
			c.ResolveApprovalHandler, c.GetApprovalHandler, c.ListApprovalsHandler, c.Logger),
		Assistant: api.NewAssistantHandler(c.AssistantService, c.NLIService, c.Logger),
		Profile:   api.NewProfileHandler(c.ProfileRepo, c.Logger),
		Calendar: api.NewCalendarHandler(
			c.OAuthService, c.Importer, c.CalendarMirror, c.SyncStatusRepo, c.Logger),
		Briefing: api.NewBriefingHandler(c.BriefingService, c.AuditRepo, c.Logger),
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
