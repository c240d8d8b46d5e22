package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/veloxq/veloxq-api-types/problems"
)

func (c *client) CreateProblem(ctx context.Context, name string) (problems.Detail, error) {
	res := problems.Detail{}
	if err := c.postJSON(
		ctx, problems.CreateRequest{Name: name}, &res,
		fmt.Sprintf("creating problem %q is refused", name), "problems",
	); err != nil {
		return problems.Detail{}, err
	}
	return res, nil
}

func (c *client) FindProblems(ctx context.Context, param FindProblemsParameter) ([]problems.Detail, error) {
	q := url.Values{}
	q.Add("_page", strconv.Itoa(pageOrFirst(param.Page)))
	q.Add("_limit", strconv.Itoa(limitOrDefault(param.Limit)))
	if param.Name != "" {
		q.Add("q", param.Name)
	}
	return listPage[problems.Detail](ctx, c, q, "problems")
}

func (c *client) GetProblem(ctx context.Context, problemId string) (problems.Detail, error) {
	res := problems.Detail{}
	if err := c.getJSON(
		ctx, &res, fmt.Sprintf("problem %s is missing", problemId), nil,
		"problems", problemId,
	); err != nil {
		return problems.Detail{}, err
	}
	return res, nil
}

func pageOrFirst(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
