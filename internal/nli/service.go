package nli

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aawohq/aawo/internal/assistant"
	"github.com/aawohq/aawo/internal/llm"
	meetingsServices "github.com/aawohq/aawo/internal/meetings/application/services"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
)

// Intent names what one utterance asks for.
type Intent string

const (
	IntentCreateTask   Intent = "create_task"
	IntentCompleteTask Intent = "complete_task"
	IntentDeleteTask   Intent = "delete_task"
	IntentListTasks    Intent = "list_tasks"
	IntentReschedule   Intent = "reschedule_request"
	IntentUnknown      Intent = "unknown"
)

// Result is the parsed and executed outcome of one utterance.
type Result struct {
	Intent    Intent         `json:"intent"`
	Extracted map[string]any `json:"extracted"`
	Note      string         `json:"note"`
	Reply     string         `json:"reply,omitempty"`
}

// parsed is the LLM answer shape.
type parsed struct {
	Intent  Intent `json:"intent"`
	Title   string `json:"title,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	DueText string `json:"due_text,omitempty"`
}

const nliSystemPrompt = `너는 단문 명령 해석기다. 사용자의 한 문장을 읽고 JSON으로만 답한다.
형식: {"intent":"...", "title":"...", "keyword":"...", "due_text":"..."}
intent 목록: create_task, complete_task, delete_task, list_tasks,
reschedule_request, unknown
- create_task면 title에 작업 제목, due_text에 기한 표현을 담는다.
- complete_task/delete_task면 keyword에 대상 작업 제목 일부를 담는다.
- 시간을 조정해 달라는 요청이면 reschedule_request.
- 그 외에는 unknown.`

// Service parses one utterance into an intent and runs it through the
// assistant executor.
type Service struct {
	llm      *llm.Client
	executor *assistant.Executor
	profiles profileDomain.Repository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the NLI service. The LLM client may be nil.
func NewService(client *llm.Client, executor *assistant.Executor, profiles profileDomain.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		llm:      client,
		executor: executor,
		profiles: profiles,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Command parses and executes one utterance.
func (s *Service) Command(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Result{
			Intent:    IntentUnknown,
			Extracted: map[string]any{"raw": text},
			Note:      "요청 내용을 입력해 주세요.",
		}, nil
	}

	profile, err := s.profiles.Load(ctx)
	if err != nil {
		return nil, err
	}
	loc := profile.Location()

	command := s.parse(ctx, text, loc)

	result := &Result{Intent: command.Intent, Extracted: map[string]any{"raw": text}}
	action, note := s.toAction(command, text, loc)
	result.Note = note
	if action == nil {
		return result, nil
	}

	executed, err := s.executor.Execute(ctx, text, assistant.Plan{Actions: []assistant.Action{*action}}, false)
	if err != nil {
		return nil, err
	}
	result.Reply = executed.Reply

	if command.Title != "" {
		result.Extracted["title"] = command.Title
	}
	if command.Keyword != "" {
		result.Extracted["keyword"] = command.Keyword
	}
	if action.Due != nil {
		result.Extracted["due"] = action.Due.Format(time.RFC3339)
	}
	return result, nil
}

// parse resolves the intent, preferring the LLM and falling back to
// rules.
func (s *Service) parse(ctx context.Context, text string, loc *time.Location) parsed {
	if s.llm != nil && s.llm.Enabled() {
		var answer parsed
		err := s.llm.CompleteJSON(ctx, llm.Request{
			Purpose:     llm.PurposeNLI,
			System:      nliSystemPrompt,
			User:        text,
			Temperature: 0,
		}, &answer)
		if err == nil && validIntent(answer.Intent) {
			return answer
		}
		if err != nil {
			s.logger.Warn("nli llm parse failed, using rules", "error", err)
		}
	}
	return parseRules(text)
}

func validIntent(intent Intent) bool {
	switch intent {
	case IntentCreateTask, IntentCompleteTask, IntentDeleteTask, IntentListTasks, IntentReschedule, IntentUnknown:
		return true
	default:
		return false
	}
}

// titleNoiseTokens are command words stripped off a create-task
// utterance to recover the bare title.
var titleNoiseTokens = []string{"할일", "작업", "task", "추가해줘", "추가", "만들어줘", "만들기", "만들", "등록해줘", "등록", ":"}

// parseRules is the keyword cascade used without an LLM answer.
func parseRules(text string) parsed {
	lowered := strings.ToLower(text)

	if containsAny(text, "추가", "만들", "등록") || strings.Contains(lowered, "create task") {
		title := text
		for _, token := range titleNoiseTokens {
			title = strings.ReplaceAll(title, token, "")
		}
		title = strings.TrimSpace(title)
		if title == "" {
			title = "새 작업"
		}
		return parsed{Intent: IntentCreateTask, Title: title, DueText: text}
	}

	if containsAny(text, "완료") || strings.Contains(lowered, "done") {
		return parsed{Intent: IntentCompleteTask, Keyword: text}
	}

	if containsAny(text, "삭제", "지워") {
		return parsed{Intent: IntentDeleteTask, Keyword: text}
	}

	if containsAny(text, "목록", "리스트") || strings.Contains(lowered, "list") {
		return parsed{Intent: IntentListTasks}
	}

	if containsAny(text, "오늘", "내일", "다음 주", "오후", "오전") {
		return parsed{Intent: IntentReschedule}
	}

	return parsed{Intent: IntentUnknown}
}

// toAction maps the parsed command to an executor action. A nil action
// means nothing runs and the note stands alone.
func (s *Service) toAction(command parsed, text string, loc *time.Location) (*assistant.Action, string) {
	switch command.Intent {
	case IntentCreateTask:
		action := &assistant.Action{
			Kind:          assistant.ActionCreateTask,
			Title:         command.Title,
			EffortMinutes: 60,
			Priority:      "medium",
		}
		if hasDueCue(text) {
			source := command.DueText
			if source == "" {
				source = text
			}
			action.Due = meetingsServices.ParseDuePhrase(source, s.now().In(loc), loc)
		}
		return action, "자연어 요청을 작업 생성으로 적용했습니다."
	case IntentCompleteTask:
		return &assistant.Action{Kind: assistant.ActionCompleteTask, Keyword: command.Keyword}, "작업 완료 요청으로 해석했습니다."
	case IntentDeleteTask:
		return &assistant.Action{Kind: assistant.ActionDeleteTask, Keyword: command.Keyword}, "작업 삭제 요청으로 해석했습니다."
	case IntentListTasks:
		return &assistant.Action{Kind: assistant.ActionListTasks}, "열린 작업 목록 요청으로 해석했습니다."
	case IntentReschedule:
		return &assistant.Action{Kind: assistant.ActionRescheduleRequest, TimeHint: text},
			"시간 조정 요청으로 해석했습니다."
	default:
		return nil, "명확한 의도를 찾지 못했습니다. 예: '내일 오전에 보고서 작성 작업 추가해줘'"
	}
}

// hasDueCue reports whether the utterance mentions a deadline.
func hasDueCue(text string) bool {
	lowered := strings.ToLower(text)
	return containsAny(text, "마감", "까지") || strings.Contains(lowered, "due")
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
