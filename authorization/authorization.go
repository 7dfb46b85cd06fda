package authorization

import (
	"context"
	"fmt"
)

// Provider enforces policies for (subject, domain, object, action) tuples.
type Provider interface {
	CheckAccess(ctx context.Context, req CheckAccessRequest) (res *CheckAccessResponse, err error)
	AddToGroup(ctx context.Context, sub string, groups ...string) (err error)
	RemoveFromGroup(ctx context.Context, sub string, groups ...string) (err error)
}

type Service struct {
	provider Provider
}

func NewService(provider Provider) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("authorization provider must not be nil")
	}

	return &Service{
		provider: provider,
	}, nil
}

type CheckAccessRequest struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

type CheckAccessResponse struct {
	Allowed bool
}

type AccessDeniedError struct {
	Subject string
	Domain  string
	Object  string
	Action  string
}

func (err AccessDeniedError) Error() string {
	if err.Object != "" {
		return fmt.Sprintf(
			"access denied for subject '%s' on domain '%s' object '%s' action '%s'",
			err.Subject,
			err.Domain,
			err.Object,
			err.Action,
		)
	}

	return fmt.Sprintf("access denied for subject '%s' on domain '%s' action '%s'", err.Subject, err.Domain, err.Action)
}

func (svc *Service) CheckAccess(ctx context.Context, req CheckAccessRequest) (*CheckAccessResponse, error) {
	res, err := svc.provider.CheckAccess(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}

	return res, nil
}

func (svc *Service) AddToGroup(ctx context.Context, sub string, groups ...string) error {
	err := svc.provider.AddToGroup(ctx, sub, groups...)
	if err != nil {
		return fmt.Errorf("failed to add subject to groups: %w", err)
	}

	return nil
}

func (svc *Service) RemoveFromGroup(ctx context.Context, sub string, groups ...string) error {
	err := svc.provider.RemoveFromGroup(ctx, sub, groups...)
	if err != nil {
		return fmt.Errorf("failed to remove subject from groups: %w", err)
	}

	return nil
}
