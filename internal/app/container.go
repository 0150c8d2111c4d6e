// Package app wires the application dependency graph.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	approvalCommands "github.com/aawohq/aawo/internal/approvals/application/commands"
	approvalQueries "github.com/aawohq/aawo/internal/approvals/application/queries"
	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	approvalPersistence "github.com/aawohq/aawo/internal/approvals/infrastructure/persistence"
	"github.com/aawohq/aawo/internal/assistant"
	"github.com/aawohq/aawo/internal/briefing"
	"github.com/aawohq/aawo/internal/calendar/application/oauth"
	calendarSubs "github.com/aawohq/aawo/internal/calendar/application/subscribers"
	calendarDomain "github.com/aawohq/aawo/internal/calendar/domain"
	"github.com/aawohq/aawo/internal/calendar/infrastructure/microsoft"
	calendarPersistence "github.com/aawohq/aawo/internal/calendar/infrastructure/persistence"
	"github.com/aawohq/aawo/internal/llm"
	meetingCommands "github.com/aawohq/aawo/internal/meetings/application/commands"
	meetingQueries "github.com/aawohq/aawo/internal/meetings/application/queries"
	meetingServices "github.com/aawohq/aawo/internal/meetings/application/services"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	meetingPersistence "github.com/aawohq/aawo/internal/meetings/infrastructure/persistence"
	"github.com/aawohq/aawo/internal/nli"
	"github.com/aawohq/aawo/internal/productivity/application/commands"
	"github.com/aawohq/aawo/internal/productivity/application/queries"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	"github.com/aawohq/aawo/internal/productivity/infrastructure/persistence"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	profilePersistence "github.com/aawohq/aawo/internal/profile/infrastructure/persistence"
	projectCommands "github.com/aawohq/aawo/internal/projects/application/commands"
	projectQueries "github.com/aawohq/aawo/internal/projects/application/queries"
	projectsDomain "github.com/aawohq/aawo/internal/projects/domain"
	projectPersistence "github.com/aawohq/aawo/internal/projects/infrastructure/persistence"
	scheduleCommands "github.com/aawohq/aawo/internal/scheduling/application/commands"
	scheduleQueries "github.com/aawohq/aawo/internal/scheduling/application/queries"
	scheduleServices "github.com/aawohq/aawo/internal/scheduling/application/services"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
	schedulePersistence "github.com/aawohq/aawo/internal/scheduling/infrastructure/persistence"
	"github.com/aawohq/aawo/internal/shared/application"
	"github.com/aawohq/aawo/internal/shared/audit"
	auditPersistence "github.com/aawohq/aawo/internal/shared/audit/persistence"
	sharedCrypto "github.com/aawohq/aawo/internal/shared/infrastructure/crypto"
	"github.com/aawohq/aawo/internal/shared/infrastructure/database"
	_ "github.com/aawohq/aawo/internal/shared/infrastructure/database/postgres" // register postgres driver
	_ "github.com/aawohq/aawo/internal/shared/infrastructure/database/sqlite"   // register sqlite driver
	"github.com/aawohq/aawo/internal/shared/infrastructure/eventbus"
	"github.com/aawohq/aawo/internal/shared/infrastructure/migrations"
	"github.com/aawohq/aawo/pkg/config"
	"github.com/aawohq/aawo/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	DB database.Connection

	RedisClient *redis.Client

	// Repositories
	TaskRepo       task.Repository
	ProjectRepo    projectsDomain.Repository
	BlockRepo      schedulingDomain.BlockRepository
	ProposalRepo   schedulingDomain.ProposalRepository
	MeetingRepo    meetingsDomain.Repository
	ApprovalRepo   approvalsDomain.Repository
	ProfileRepo    profileDomain.Repository
	ConnectionRepo calendarDomain.ConnectionRepository
	SyncStatusRepo calendarDomain.SyncStatusRepository
	AuditRepo      audit.Repository

	UnitOfWork application.UnitOfWork

	// Events
	EventBus       *eventbus.InProcessEventBus
	EventPublisher eventbus.Publisher

	// LLM
	LLM *llm.Client

	// Task handlers
	CreateTaskHandler       *commands.CreateTaskHandler
	UpdateTaskHandler       *commands.UpdateTaskHandler
	ChangeTaskStatusHandler *commands.ChangeTaskStatusHandler
	DeleteTaskHandler       *commands.DeleteTaskHandler
	GetTaskHandler          *queries.GetTaskHandler
	ListTasksHandler        *queries.ListTasksHandler

	// Project handlers
	CreateProjectHandler *projectCommands.CreateProjectHandler
	UpdateProjectHandler *projectCommands.UpdateProjectHandler
	DeleteProjectHandler *projectCommands.DeleteProjectHandler
	GetProjectHandler    *projectQueries.GetProjectHandler
	ListProjectsHandler  *projectQueries.ListProjectsHandler

	// Scheduling
	SchedulerEngine         *scheduleServices.Engine
	SlotFinder              *scheduleServices.FreeSlotFinder
	NextSlotFinder          *scheduleServices.NextSlotFinder
	ProposalApplier         *scheduleServices.ProposalApplier
	CreateBlockHandler      *scheduleCommands.CreateBlockHandler
	MoveBlockHandler        *scheduleCommands.MoveBlockHandler
	DeleteBlockHandler      *scheduleCommands.DeleteBlockHandler
	GenerateProposalHandler *scheduleCommands.GenerateProposalHandler
	GetBlockHandler         *scheduleQueries.GetBlockHandler
	ListBlocksHandler       *scheduleQueries.ListBlocksHandler
	FreeSlotsHandler        *scheduleQueries.FreeSlotsHandler
	GetProposalHandler      *scheduleQueries.GetProposalHandler
	ListProposalsHandler    *scheduleQueries.ListProposalsHandler

	// Meetings
	MeetingProcessor      *meetingServices.Processor
	IngestMeetingHandler  *meetingCommands.IngestMeetingHandler
	GetMeetingHandler     *meetingQueries.GetMeetingHandler
	ListMeetingsHandler   *meetingQueries.ListMeetingsHandler
	ListCandidatesHandler *meetingQueries.ListCandidatesHandler

	// Approvals
	ResolveApprovalHandler *approvalCommands.ResolveApprovalHandler
	GetApprovalHandler     *approvalQueries.GetApprovalHandler
	ListApprovalsHandler   *approvalQueries.ListApprovalsHandler

	// Calendar sync
	OAuthService   *oauth.Service
	GraphClient    *microsoft.Client
	CalendarMirror calendarDomain.Mirror
	Importer       *microsoft.Importer

	// Services
	Auditor          *audit.Recorder
	BriefingService  *briefing.Service
	AssistantService *assistant.Service
	NLIService       *nli.Service
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DB = conn

	if err := runMigrations(ctx, conn, logger); err != nil {
		conn.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("connect to redis: %w", err)
			}
			logger.Warn("redis unavailable, chat history falls back to memory", "error", err)
		} else {
			c.RedisClient = client
			logger.Info("connected to redis")
		}
	}

	var encrypter sharedCrypto.Encrypter
	if cfg.EncryptionKey != "" {
		enc, err := sharedCrypto.NewAESGCMFromBase64Key(cfg.EncryptionKey)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("init token encryption: %w", err)
		}
		encrypter = enc
	} else {
		logger.Warn("AAWO_ENCRYPTION_KEY not set, oauth tokens are stored in plaintext")
	}

	// Repositories
	c.TaskRepo = persistence.NewTaskRepository(conn)
	c.ProjectRepo = projectPersistence.NewProjectRepository(conn)
	c.BlockRepo = schedulePersistence.NewBlockRepository(conn)
	c.ProposalRepo = schedulePersistence.NewProposalRepository(conn)
	c.MeetingRepo = meetingPersistence.NewMeetingRepository(conn)
	c.ApprovalRepo = approvalPersistence.NewApprovalRepository(conn)
	c.ProfileRepo = profilePersistence.NewProfileRepository(conn)
	c.ConnectionRepo = calendarPersistence.NewConnectionRepository(conn, encrypter)
	c.SyncStatusRepo = calendarPersistence.NewSyncStatusRepository(conn)
	c.AuditRepo = auditPersistence.NewAuditRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Event bus. Block lifecycle events always reach the in-process
	// consumers; RabbitMQ is an additional external sink when configured.
	c.EventBus = eventbus.NewInProcessEventBus(logger)
	var publisher eventbus.Publisher = eventbus.NewInProcessPublisher(c.EventBus, logger)
	if cfg.RabbitMQURL != "" {
		rabbit, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("connect to rabbitmq: %w", err)
			}
			logger.Warn("rabbitmq unavailable, events stay in-process", "error", err)
		} else {
			publisher = eventbus.NewFanoutPublisher(publisher, rabbit)
			logger.Info("connected to rabbitmq")
		}
	}
	c.EventPublisher = publisher

	// LLM client
	c.LLM = llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Models: map[llm.Purpose][]string{
			llm.PurposePlanning:          cfg.PlannerModels,
			llm.PurposeMeetingExtraction: cfg.ExtractorModels,
			llm.PurposeNLI:               cfg.NLIModels,
		},
		CallTimeout: cfg.LLMCallTimeout,
		TotalBudget: cfg.LLMTotalBudget,
		Enabled:     cfg.LLMEnabled,
	}, logger, c.Metrics)

	// Microsoft Graph
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.GraphClientID,
		ClientSecret: cfg.GraphClientSecret,
		RedirectURL:  cfg.GraphRedirectURL,
		Scopes:       microsoft.DefaultScopes,
		Endpoint:     microsoft.Endpoints(cfg.GraphTenant),
	}
	c.GraphClient = microsoft.NewClient(oauthCfg, c.ConnectionRepo, c.SyncStatusRepo, cfg.GraphBaseURL, logger, c.Metrics)
	syncer := microsoft.NewSyncer(c.GraphClient, logger, c.Metrics)
	c.CalendarMirror = syncer
	c.Importer = microsoft.NewImporter(c.GraphClient, c.BlockRepo, c.TaskRepo, logger)
	c.OAuthService = oauth.NewService(oauthCfg, c.ConnectionRepo, c.SyncStatusRepo,
		microsoft.NewUserInfoFetcher(cfg.GraphBaseURL), logger)

	// Scheduling services
	c.SchedulerEngine = scheduleServices.NewEngine(logger)
	c.SlotFinder = scheduleServices.NewFreeSlotFinder(cfg.MinFreeSlotMinutes)
	c.NextSlotFinder = scheduleServices.NewNextSlotFinder(c.BlockRepo)
	c.ProposalApplier = scheduleServices.NewProposalApplier(c.BlockRepo, c.ProposalRepo, c.UnitOfWork, publisher, logger)

	// Task handlers
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.ProjectRepo, logger)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.ProjectRepo, logger)
	c.ChangeTaskStatusHandler = commands.NewChangeTaskStatusHandler(c.TaskRepo, logger)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(c.TaskRepo, c.BlockRepo, c.UnitOfWork, publisher, logger)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)
	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)

	// Project handlers
	c.CreateProjectHandler = projectCommands.NewCreateProjectHandler(c.ProjectRepo, logger)
	c.UpdateProjectHandler = projectCommands.NewUpdateProjectHandler(c.ProjectRepo, logger)
	c.DeleteProjectHandler = projectCommands.NewDeleteProjectHandler(c.ProjectRepo, logger)
	c.GetProjectHandler = projectQueries.NewGetProjectHandler(c.ProjectRepo)
	c.ListProjectsHandler = projectQueries.NewListProjectsHandler(c.ProjectRepo)

	// Schedule handlers
	c.CreateBlockHandler = scheduleCommands.NewCreateBlockHandler(c.BlockRepo, c.UnitOfWork, publisher, logger)
	c.MoveBlockHandler = scheduleCommands.NewMoveBlockHandler(c.BlockRepo, c.UnitOfWork, publisher, logger)
	c.DeleteBlockHandler = scheduleCommands.NewDeleteBlockHandler(c.BlockRepo,
		remoteCalendar{mirror: c.CalendarMirror}, c.UnitOfWork, publisher, logger)
	c.GenerateProposalHandler = scheduleCommands.NewGenerateProposalHandler(
		c.TaskRepo, c.BlockRepo, c.ProposalRepo, c.ProfileRepo,
		c.SchedulerEngine, c.SlotFinder, c.UnitOfWork, logger)
	c.GetBlockHandler = scheduleQueries.NewGetBlockHandler(c.BlockRepo)
	c.ListBlocksHandler = scheduleQueries.NewListBlocksHandler(c.BlockRepo)
	c.FreeSlotsHandler = scheduleQueries.NewFreeSlotsHandler(c.BlockRepo, c.ProfileRepo, c.SlotFinder)
	c.GetProposalHandler = scheduleQueries.NewGetProposalHandler(c.ProposalRepo)
	c.ListProposalsHandler = scheduleQueries.NewListProposalsHandler(c.ProposalRepo)

	// Meetings
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, extraction uses UTC", "timezone", cfg.Timezone, "error", err)
		loc = time.UTC
	}
	var llmExtractor *meetingServices.LLMExtractor
	if c.LLM.Enabled() {
		llmExtractor = meetingServices.NewLLMExtractor(c.LLM, loc)
	}
	c.MeetingProcessor = meetingServices.NewProcessor(c.MeetingRepo, c.TaskRepo, c.BlockRepo, c.ApprovalRepo,
		c.NextSlotFinder, llmExtractor, meetingServices.NewRuleExtractor(loc), logger, c.Metrics)
	c.IngestMeetingHandler = meetingCommands.NewIngestMeetingHandler(c.MeetingRepo, c.MeetingProcessor, logger)
	c.GetMeetingHandler = meetingQueries.NewGetMeetingHandler(c.MeetingRepo)
	c.ListMeetingsHandler = meetingQueries.NewListMeetingsHandler(c.MeetingRepo)
	c.ListCandidatesHandler = meetingQueries.NewListCandidatesHandler(c.MeetingRepo)

	// Audit and briefing
	c.Auditor = audit.NewRecorder(c.AuditRepo, logger)
	c.BriefingService = briefing.NewService(c.TaskRepo, c.BlockRepo, c.ApprovalRepo, c.ProfileRepo, logger)

	// Assistant. The executor runs planned actions; approval effects
	// close the loop for confirmed ones.
	history := assistant.NewHistory(c.RedisClient, logger)
	executor := assistant.NewExecutor(assistant.ExecutorDeps{
		Tasks:     c.TaskRepo,
		Blocks:    c.BlockRepo,
		Proposals: c.ProposalRepo,
		Approvals: c.ApprovalRepo,
		Profiles:  c.ProfileRepo,
		Meetings:  c.MeetingRepo,
		Generate:  c.GenerateProposalHandler,
		Applier:   c.ProposalApplier,
		Finder:    c.SlotFinder,
		Processor: c.MeetingProcessor,
		Briefing:  c.BriefingService,
		Mirror:    c.CalendarMirror,
		History:   history,
		UoW:       c.UnitOfWork,
		Auditor:   c.Auditor,
		Logger:    logger,
		Metrics:   c.Metrics,
	})
	effects := assistant.NewApprovalEffects(executor, c.ProposalApplier, c.MeetingRepo, c.TaskRepo,
		c.NextSlotFinder, c.Auditor, logger)
	c.ResolveApprovalHandler = approvalCommands.NewResolveApprovalHandler(c.ApprovalRepo, effects, logger)
	c.GetApprovalHandler = approvalQueries.NewGetApprovalHandler(c.ApprovalRepo)
	c.ListApprovalsHandler = approvalQueries.NewListApprovalsHandler(c.ApprovalRepo)
	c.AssistantService = assistant.NewService(assistant.NewPlanner(c.LLM, logger), executor, history,
		c.ResolveApprovalHandler, c.ProfileRepo, logger)
	c.NLIService = nli.NewService(c.LLM, executor, c.ProfileRepo, logger)

	// Committed and deleted blocks are mirrored to the remote calendar
	// as they happen.
	c.EventBus.RegisterConsumer(calendarSubs.NewMirrorSubscriber(c.BlockRepo, c.CalendarMirror, logger))

	c.registerHealthChecks()

	logger.Info("container initialized",
		"driver", conn.Driver().String(),
		"llm_enabled", c.LLM.Enabled(),
		"graph_configured", c.OAuthService.Configured(),
	)
	return c, nil
}

// Migrate applies the schema and exits without building the rest of
// the graph.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	return runMigrations(ctx, conn, logger)
}

// openDatabase connects to SQLite or PostgreSQL depending on the URL.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	dbCfg := database.Config{URL: cfg.DatabaseURL}
	if database.DetectDriver(cfg.DatabaseURL) == database.DriverSQLite {
		dbCfg.Driver = database.DriverSQLite
		dbCfg.SQLitePath = cfg.DatabaseURL
		if dbCfg.SQLitePath == "" {
			dbCfg.SQLitePath = database.DefaultSQLitePath()
		}
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver().String())
	return conn, nil
}

func runMigrations(ctx context.Context, conn database.Connection, logger *slog.Logger) error {
	switch conn.Driver() {
	case database.DriverSQLite:
		sqliteConn, ok := conn.(interface{ DB() *sql.DB })
		if !ok {
			return fmt.Errorf("sqlite connection does not expose *sql.DB, got %T", conn)
		}
		if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
			return fmt.Errorf("run sqlite migrations: %w", err)
		}
	case database.DriverPostgres:
		if err := migrations.RunPostgresMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
	}
	logger.Info("migrations applied")
	return nil
}

// remoteCalendar narrows the mirror to what the block commands need.
type remoteCalendar struct {
	mirror calendarDomain.Mirror
}

func (r remoteCalendar) IsConnected(ctx context.Context) bool {
	return r.mirror.IsConnected(ctx)
}

func (r remoteCalendar) DeleteBlocks(ctx context.Context, blocks []*schedulingDomain.CalendarBlock) error {
	result, err := r.mirror.Delete(ctx, blocks)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("remote delete failed for %d of %d blocks", result.Failed, len(blocks))
	}
	return nil
}

func (c *Container) registerHealthChecks() {
	c.Health.Register("database", func(ctx context.Context) observability.HealthCheckResult {
		if err := c.DB.Ping(ctx); err != nil {
			return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: err.Error()}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})

	if c.RedisClient != nil {
		c.Health.Register("redis", func(ctx context.Context) observability.HealthCheckResult {
			if err := c.RedisClient.Ping(ctx).Err(); err != nil {
				return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: err.Error()}
			}
			return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
		})
	}

	c.Health.Register("graph", func(ctx context.Context) observability.HealthCheckResult {
		if !c.OAuthService.Configured() {
			return observability.HealthCheckResult{Status: observability.HealthStatusHealthy, Message: "not configured"}
		}
		status, err := c.SyncStatusRepo.Load(ctx)
		if err != nil {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: err.Error()}
		}
		if status.LastError != "" {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: status.LastError}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing redis connection", "error", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		}
	}
}
