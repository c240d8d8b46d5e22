package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/veloxq/veloxq-api-types/problems"
	"github.com/veloxq/veloxq-go/pkg/rest"
)

var ErrProblemNotFound = errors.New("problem not found")

// UndefinedProblemName is the name of the shared default problem.
//
// Files uploaded without an explicit problem land here. Whether the
// platform keeps one such problem per account or recreates it is a
// service property; this client only finds-or-creates by name.
const UndefinedProblemName = "undefined"

// Problem groups uploaded files on the platform.
type Problem struct {
	client rest.Client
	detail problems.Detail
}

func (p *Problem) Id() string {
	return p.detail.Id
}

func (p *Problem) Name() string {
	return p.detail.Name
}

func (p *Problem) Detail() problems.Detail {
	return p.detail
}

// Files lists the files of the problem, in server order.
func (p *Problem) Files(ctx context.Context, param rest.FindFilesParameter) ([]*File, error) {
	records, err := p.client.FindProblemFiles(ctx, p.detail.Id, param)
	if err != nil {
		return nil, fmt.Errorf("listing files of problem %s: %w", p.detail.Id, err)
	}

	found := make([]*File, 0, len(records))
	for _, r := range records {
		found = append(found, &File{client: p.client, detail: r})
	}
	return found, nil
}

// GetProblem fetches a problem by id.
func GetProblem(ctx context.Context, c rest.Client, problemId string) (*Problem, error) {
	detail, err := c.GetProblem(ctx, problemId)
	if err != nil {
		return nil, err
	}
	return &Problem{client: c, detail: detail}, nil
}

// FindProblem returns the problem named name.
//
// The listing query is a substring match on the server, so the result
// page is scanned for an exact name.
//
// # Returns
//
// - *Problem
//
// - error: ErrProblemNotFound when no problem of that exact name exists.
func FindProblem(ctx context.Context, c rest.Client, name string) (*Problem, error) {
	found, err := c.FindProblems(ctx, rest.FindProblemsParameter{Name: name})
	if err != nil {
		return nil, fmt.Errorf("looking up problem %q: %w", name, err)
	}
	for _, d := range found {
		if d.Name == name {
			return &Problem{client: c, detail: d}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, name)
}

// FindOrCreateProblem returns the problem named name, creating it when
// no problem of that exact name exists.
func FindOrCreateProblem(ctx context.Context, c rest.Client, name string) (*Problem, error) {
	problem, err := FindProblem(ctx, c, name)
	if err == nil {
		return problem, nil
	}
	if !errors.Is(err, ErrProblemNotFound) {
		return nil, err
	}

	created, err := c.CreateProblem(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("creating problem %q: %w", name, err)
	}
	return &Problem{client: c, detail: created}, nil
}

// Undefined returns the shared default problem, creating it on first use.
func Undefined(ctx context.Context, c rest.Client) (*Problem, error) {
	return FindOrCreateProblem(ctx, c, UndefinedProblemName)
}
