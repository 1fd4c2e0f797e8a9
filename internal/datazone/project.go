package datazone

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/aws/aws-sdk-go-v2/service/datazone/types"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeProject is the registry key of the Project resource type.
const TypeProject = "AWS::DataZone::Project"

// Project is the model of a DataZone project.
type Project struct {
	DomainID      string   `json:"domain_id"`
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	GlossaryTerms []string `json:"glossary_terms,omitempty"`
	Status        string   `json:"status,omitempty"`
}

func newProjectResource(p engine.Policy) *engine.Resource[Project] {
	settled := engine.StatusSets{
		Stable:    []string{"ACTIVE"},
		Transient: []string{"UPDATING", "MOVING"},
		Failed:    []string{"UPDATE_FAILED"},
	}
	// DataZone answers AccessDenied instead of NotFound for projects that
	// have been deleted.
	overrides := make([]engine.Override, 0, 3) //nolint:mnd // read, update, delete
	for _, op := range []engine.Operation{engine.OpRead, engine.OpUpdate, engine.OpDelete} {
		overrides = append(overrides, engine.Override{
			Operation: op,
			Code:      engine.CodeAccessDenied,
			Kind:      engine.KindNotFound,
		})
	}
	return &engine.Resource[Project]{
		TypeName: TypeProject,
		Policy:   p,
		Create:   settled,
		Update:   settled,
		Delete: engine.StatusSets{
			Transient: []string{"DELETING"},
			Failed:    []string{"DELETE_FAILED"},
		},
		Classifier: engine.NewClassifier(overrides...),
		Identify:   func(p Project) string { return identity(p.DomainID, p.ID) },
	}
}

type projectAPI struct {
	api API
}

func (a *projectAPI) Create(ctx context.Context, desired Project) (Project, error) {
	out, err := a.api.CreateProject(ctx, &datazone.CreateProjectInput{
		DomainIdentifier: aws.String(desired.DomainID),
		Name:             aws.String(desired.Name),
		Description:      optString(desired.Description),
		GlossaryTerms:    desired.GlossaryTerms,
	})
	if err != nil {
		return Project{}, err
	}
	created := desired
	created.ID = aws.ToString(out.Id)
	created.Status = string(out.ProjectStatus)
	return created, nil
}

func (a *projectAPI) Read(ctx context.Context, current Project) (engine.Observation[Project], error) {
	out, err := a.api.GetProject(ctx, &datazone.GetProjectInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	if err != nil {
		return engine.Observation[Project]{}, err
	}
	status := string(out.ProjectStatus)
	return engine.Observation[Project]{
		Model: Project{
			DomainID:      aws.ToString(out.DomainId),
			ID:            aws.ToString(out.Id),
			Name:          aws.ToString(out.Name),
			Description:   aws.ToString(out.Description),
			GlossaryTerms: out.GlossaryTerms,
			Status:        status,
		},
		Status:        status,
		StatusMessage: projectFailure(out.FailureReasons),
	}, nil
}

func projectFailure(reasons []types.ProjectDeletionError) string {
	msgs := make([]string, 0, len(reasons))
	for _, r := range reasons {
		msgs = append(msgs, aws.ToString(r.Code)+": "+aws.ToString(r.Message))
	}
	return strings.Join(msgs, "; ")
}

func (a *projectAPI) Update(ctx context.Context, desired, previous Project) (Project, error) {
	_, err := a.api.UpdateProject(ctx, &datazone.UpdateProjectInput{
		DomainIdentifier: aws.String(previous.DomainID),
		Identifier:       aws.String(previous.ID),
		Name:             optString(desired.Name),
		Description:      optString(desired.Description),
		GlossaryTerms:    desired.GlossaryTerms,
	})
	if err != nil {
		return Project{}, err
	}
	updated := desired
	updated.DomainID = previous.DomainID
	updated.ID = previous.ID
	return updated, nil
}

func (a *projectAPI) Delete(ctx context.Context, current Project) error {
	_, err := a.api.DeleteProject(ctx, &datazone.DeleteProjectInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	return err
}

func (a *projectAPI) List(ctx context.Context, filter Project, nextToken string) ([]Project, string, error) {
	out, err := a.api.ListProjects(ctx, &datazone.ListProjectsInput{
		DomainIdentifier: aws.String(filter.DomainID),
		MaxResults:       pageSize(),
		NextToken:        optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	projects := make([]Project, 0, len(out.Items))
	for _, item := range out.Items {
		projects = append(projects, Project{
			DomainID:    aws.ToString(item.DomainId),
			ID:          aws.ToString(item.Id),
			Name:        aws.ToString(item.Name),
			Description: aws.ToString(item.Description),
			Status:      string(item.ProjectStatus),
		})
	}
	return projects, aws.ToString(out.NextToken), nil
}
