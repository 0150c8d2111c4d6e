package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aawohq/aawo/internal/approvals/application/commands"
	"github.com/aawohq/aawo/internal/approvals/application/queries"
	approvalsDomain "github.com/aawohq/aawo/internal/approvals/domain"
)

type memApprovalRepo struct {
	approvals map[uuid.UUID]*approvalsDomain.ApprovalRequest
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{approvals: make(map[uuid.UUID]*approvalsDomain.ApprovalRequest)}
}

func (m *memApprovalRepo) Save(_ context.Context, request *approvalsDomain.ApprovalRequest) error {
	m.approvals[request.ID()] = request
	return nil
}

func (m *memApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*approvalsDomain.ApprovalRequest, error) {
	request, ok := m.approvals[id]
	if !ok {
		return nil, approvalsDomain.ErrNotFound
	}
	return request, nil
}

func (m *memApprovalRepo) List(_ context.Context, filter approvalsDomain.Filter) ([]*approvalsDomain.ApprovalRequest, error) {
	var out []*approvalsDomain.ApprovalRequest
	for _, request := range m.approvals {
		if filter.Status != nil && request.Status() != *filter.Status {
			continue
		}
		if filter.Kind != nil && request.Kind() != *filter.Kind {
			continue
		}
		out = append(out, request)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memApprovalRepo) CountPending(_ context.Context) (int, error) {
	count := 0
	for _, request := range m.approvals {
		if request.IsPending() {
			count++
		}
	}
	return count, nil
}

func newApprovalTestServer(t *testing.T) (*httptest.Server, *memApprovalRepo) {
	t.Helper()
	repo := newMemApprovalRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewApprovalHandler(
		commands.NewResolveApprovalHandler(repo, nil, logger),
		queries.NewGetApprovalHandler(repo),
		queries.NewListApprovalsHandler(repo),
		logger,
	)

	server := NewServer(DefaultServerConfig(), Handlers{Approvals: handler}, nil, logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func seedApproval(t *testing.T, repo *memApprovalRepo, kind approvalsDomain.Kind) *approvalsDomain.ApprovalRequest {
	t.Helper()
	request, err := approvalsDomain.NewApprovalRequest(kind, "회의 액션아이템 확인", map[string]string{"note": "테스트"})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), request))
	return request
}

func TestApprovalHandler_Approve(t *testing.T) {
	ts, repo := newApprovalTestServer(t)
	seeded := seedApproval(t, repo, approvalsDomain.KindOther)

	resp := postJSON(t, ts.URL+"/api/v1/approvals/"+seeded.ID().String()+"/approve", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolved struct {
		Approval approvalDTO `json:"approval"`
		Reply    string      `json:"reply"`
	}
	decodeBody(t, resp, &resolved)
	assert.Equal(t, "approved", resolved.Approval.Status)
	assert.NotEmpty(t, resolved.Reply)
	assert.Equal(t, approvalsDomain.StatusApproved, seeded.Status())
}

func TestApprovalHandler_RejectWithReason(t *testing.T) {
	ts, repo := newApprovalTestServer(t)
	seeded := seedApproval(t, repo, approvalsDomain.KindReschedule)

	resp := postJSON(t, ts.URL+"/api/v1/approvals/"+seeded.ID().String()+"/reject", map[string]string{"reason": "일정이 맞지 않음"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var resolved struct {
		Approval approvalDTO `json:"approval"`
	}
	decodeBody(t, resp, &resolved)
	assert.Equal(t, "rejected", resolved.Approval.Status)
	assert.Equal(t, "일정이 맞지 않음", resolved.Approval.Reason)
}

func TestApprovalHandler_ResolveTwiceConflicts(t *testing.T) {
	ts, repo := newApprovalTestServer(t)
	seeded := seedApproval(t, repo, approvalsDomain.KindOther)

	first := postJSON(t, ts.URL+"/api/v1/approvals/"+seeded.ID().String()+"/approve", map[string]string{})
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, ts.URL+"/api/v1/approvals/"+seeded.ID().String()+"/reject", map[string]string{})
	defer second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)
}

func TestApprovalHandler_ResolveUnknownIs404(t *testing.T) {
	ts, _ := newApprovalTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/approvals/"+uuid.NewString()+"/approve", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApprovalHandler_ListFiltersByStatus(t *testing.T) {
	ts, repo := newApprovalTestServer(t)
	seedApproval(t, repo, approvalsDomain.KindActionItem)
	resolved := seedApproval(t, repo, approvalsDomain.KindActionItem)
	require.NoError(t, resolved.Reject("테스트"))

	resp, err := http.Get(ts.URL + "/api/v1/approvals?status=pending")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed struct {
		Approvals []approvalDTO `json:"approvals"`
	}
	decodeBody(t, resp, &listed)
	require.Len(t, listed.Approvals, 1)
	assert.Equal(t, "pending", listed.Approvals[0].Status)
}
