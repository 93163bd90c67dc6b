// Package memory provides process-lifetime stores for the request lifecycle.
// State is intentionally ephemeral: the bot serves one admin at low volume
// and every record can be reconstructed by re-running the flow.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ContextLab/lab-manual/internal/domain"
	"github.com/ContextLab/lab-manual/internal/repository"
)

// Store bundles the three in-memory repositories so the composition root can
// hand out one value. Each repository guards its map with its own RWMutex so
// interactions racing on the same subject serialize on the record.
type Store struct {
	OnboardingRepository  repository.OnboardingRepository
	OffboardingRepository repository.OffboardingRepository
	PartialRepository     repository.PartialSubmissionRepository
	StepRepository        repository.StepExecutionRepository
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		OnboardingRepository:  NewOnboardingRepository(),
		OffboardingRepository: NewOffboardingRepository(),
		PartialRepository:     NewPartialSubmissionRepository(),
		StepRepository:        NewStepExecutionRepository(),
	}
}

type onboardingRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.OnboardingRequest
}

// NewOnboardingRepository creates an empty onboarding request store.
func NewOnboardingRepository() repository.OnboardingRepository {
	return &onboardingRepository{requests: make(map[string]*domain.OnboardingRequest)}
}

// cloneRequest copies a request including its collection-valued fields, so a
// record handed out by Get (or handed in through Save) never shares state with
// the stored one. A caller mutating its copy must go through Save to be seen.
func cloneRequest(req *domain.OnboardingRequest) *domain.OnboardingRequest {
	cp := *req
	if req.GitHubTeams != nil {
		cp.GitHubTeams = append([]int64(nil), req.GitHubTeams...)
	}
	if req.CalendarPermissions != nil {
		cp.CalendarPermissions = make(map[string]string, len(req.CalendarPermissions))
		for name, role := range req.CalendarPermissions {
			cp.CalendarPermissions[name] = role
		}
	}
	return &cp
}

func (r *onboardingRepository) Create(ctx context.Context, req *domain.OnboardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[req.SlackUserID]; ok {
		return repository.ErrRequestExists
	}
	r.requests[req.SlackUserID] = cloneRequest(req)
	return nil
}

func (r *onboardingRepository) Get(ctx context.Context, slackUserID string) (*domain.OnboardingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[slackUserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *onboardingRepository) Save(ctx context.Context, req *domain.OnboardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.SlackUserID] = cloneRequest(req)
	return nil
}

func (r *onboardingRepository) Delete(ctx context.Context, slackUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, slackUserID)
	return nil
}

func (r *onboardingRepository) List(ctx context.Context) ([]domain.OnboardingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.OnboardingRequest, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, *cloneRequest(req))
	}
	return out, nil
}

func (r *onboardingRepository) PurgeTerminalOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, req := range r.requests {
		if req.Status.Terminal() && req.UpdatedAt.Before(cutoff) {
			delete(r.requests, id)
			removed++
		}
	}
	return removed, nil
}

type offboardingRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.OffboardingRequest
}

// NewOffboardingRepository creates an empty offboarding request store.
func NewOffboardingRepository() repository.OffboardingRepository {
	return &offboardingRepository{requests: make(map[string]*domain.OffboardingRequest)}
}

func (r *offboardingRepository) Save(ctx context.Context, req *domain.OffboardingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.requests[req.SlackUserID] = &cp
	return nil
}

func (r *offboardingRepository) Get(ctx context.Context, slackUserID string) (*domain.OffboardingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[slackUserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *offboardingRepository) Delete(ctx context.Context, slackUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requests, slackUserID)
	return nil
}

func (r *offboardingRepository) PurgeProcessedOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, req := range r.requests {
		if req.Processed && req.ProcessedAt.Before(cutoff) {
			delete(r.requests, id)
			removed++
		}
	}
	return removed, nil
}

type partialSubmissionRepository struct {
	mu       sync.RWMutex
	partials map[string]*domain.PartialSubmission
}

// NewPartialSubmissionRepository creates an empty partial submission store.
func NewPartialSubmissionRepository() repository.PartialSubmissionRepository {
	return &partialSubmissionRepository{partials: make(map[string]*domain.PartialSubmission)}
}

func (r *partialSubmissionRepository) Save(ctx context.Context, partial *domain.PartialSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *partial
	r.partials[partial.SlackUserID] = &cp
	return nil
}

func (r *partialSubmissionRepository) Get(ctx context.Context, slackUserID string) (*domain.PartialSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	partial, ok := r.partials[slackUserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *partial
	return &cp, nil
}

func (r *partialSubmissionRepository) Delete(ctx context.Context, slackUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.partials, slackUserID)
	return nil
}

func (r *partialSubmissionRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, partial := range r.partials {
		if partial.UpdatedAt.Before(cutoff) {
			delete(r.partials, id)
			removed++
		}
	}
	return removed, nil
}

type stepExecutionRepository struct {
	mu         sync.RWMutex
	executions map[string]*domain.StepExecution
}

// NewStepExecutionRepository creates an empty paused-step store.
func NewStepExecutionRepository() repository.StepExecutionRepository {
	return &stepExecutionRepository{executions: make(map[string]*domain.StepExecution)}
}

func (r *stepExecutionRepository) Save(ctx context.Context, exec *domain.StepExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *exec
	r.executions[exec.SlackUserID] = &cp
	return nil
}

func (r *stepExecutionRepository) Get(ctx context.Context, slackUserID string) (*domain.StepExecution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exec, ok := r.executions[slackUserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *exec
	return &cp, nil
}

func (r *stepExecutionRepository) Delete(ctx context.Context, slackUserID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.executions, slackUserID)
	return nil
}

func (r *stepExecutionRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, exec := range r.executions {
		if exec.StartedAt.Before(cutoff) {
			delete(r.executions, id)
			removed++
		}
	}
	return removed, nil
}
