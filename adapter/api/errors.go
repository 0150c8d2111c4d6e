package api

import (
	"errors"
	"log/slog"
	"net/http"

	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
	calendarDomain "github.com/aawohq/aawo/internal/calendar/domain"
	meetingsDomain "github.com/aawohq/aawo/internal/meetings/domain"
	profileDomain "github.com/aawohq/aawo/internal/profile/domain"
	"github.com/aawohq/aawo/internal/productivity/domain/task"
	projectsDomain "github.com/aawohq/aawo/internal/projects/domain"
	schedulingDomain "github.com/aawohq/aawo/internal/scheduling/domain"
)

var notFoundErrors = []error{
	task.ErrNotFound,
	projectsDomain.ErrNotFound,
	schedulingDomain.ErrBlockNotFound,
	schedulingDomain.ErrProposalNotFound,
	meetingsDomain.ErrNotFound,
	meetingsDomain.ErrCandidateNotFound,
	approvalsDomain.ErrNotFound,
}

var conflictErrors = []error{
	task.ErrVersionConflict,
	task.ErrInvalidTransition,
	projectsDomain.ErrDuplicateName,
	schedulingDomain.ErrBlockOverlap,
	schedulingDomain.ErrBlockLocked,
	schedulingDomain.ErrBlockDeleted,
	schedulingDomain.ErrProposalNotDraft,
	approvalsDomain.ErrAlreadyResolved,
	calendarDomain.ErrNotConnected,
}

var validationErrors = []error{
	task.ErrEmptyTitle,
	task.ErrTitleTooLong,
	task.ErrInvalidPriority,
	task.ErrInvalidEffort,
	task.ErrUnknownStatus,
	projectsDomain.ErrEmptyName,
	projectsDomain.ErrNameTooLong,
	projectsDomain.ErrInvalidColor,
	schedulingDomain.ErrInvalidInterval,
	schedulingDomain.ErrUnknownStrategy,
	schedulingDomain.ErrBlockTitleNeeded,
	meetingsDomain.ErrEmptyNote,
	approvalsDomain.ErrUnknownKind,
	approvalsDomain.ErrEmptyTitle,
	profileDomain.ErrInvalidAutonomy,
	profileDomain.ErrInvalidTimezone,
	profileDomain.ErrInvalidSlot,
}

// respondDomainError maps domain sentinels to HTTP status codes.
// Unmatched errors answer 500 and are logged.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
	}
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
