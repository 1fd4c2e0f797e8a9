package datazone

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeEnvironment is the registry key of the Environment resource type.
const TypeEnvironment = "AWS::DataZone::Environment"

// Environment is the model of a DataZone environment.
type Environment struct {
	DomainID             string      `json:"domain_id"`
	ProjectID            string      `json:"project_id"`
	ID                   string      `json:"id,omitempty"`
	Name                 string      `json:"name"`
	Description          string      `json:"description,omitempty"`
	EnvironmentProfileID string      `json:"environment_profile_id"`
	GlossaryTerms        []string    `json:"glossary_terms,omitempty"`
	UserParameters       []Parameter `json:"user_parameters,omitempty"`
	Provider             string      `json:"provider,omitempty"`
	Status               string      `json:"status,omitempty"`
}

// environmentBroken lists statuses from which an environment does not
// recover without intervention.
var environmentBroken = []string{
	"VALIDATION_FAILED", "SUSPENDED", "DISABLED", "EXPIRED", "INACCESSIBLE",
}

func newEnvironmentResource(p engine.Policy) *engine.Resource[Environment] {
	return &engine.Resource[Environment]{
		TypeName: TypeEnvironment,
		Policy:   p,
		Create: engine.StatusSets{
			Stable:    []string{"ACTIVE"},
			Transient: []string{"CREATING"},
			Failed:    append([]string{"CREATE_FAILED"}, environmentBroken...),
		},
		Update: engine.StatusSets{
			Stable:    []string{"ACTIVE"},
			Transient: []string{"UPDATING"},
			Failed:    append([]string{"UPDATE_FAILED"}, environmentBroken...),
		},
		Delete: engine.StatusSets{
			Stable:    []string{"DELETED"},
			Transient: []string{"DELETING"},
			Failed:    []string{"DELETE_FAILED"},
		},
		Gone: []string{"DELETED"},
		Classifier: engine.NewClassifier(engine.Override{
			Code: engine.CodeConflict,
			Kind: engine.KindResourceConflict,
		}),
		Identify: func(e Environment) string { return identity(e.DomainID, e.ID) },
	}
}

type environmentAPI struct {
	api API
}

func (a *environmentAPI) Create(ctx context.Context, desired Environment) (Environment, error) {
	out, err := a.api.CreateEnvironment(ctx, &datazone.CreateEnvironmentInput{
		DomainIdentifier:             aws.String(desired.DomainID),
		ProjectIdentifier:            aws.String(desired.ProjectID),
		EnvironmentProfileIdentifier: aws.String(desired.EnvironmentProfileID),
		Name:                         aws.String(desired.Name),
		Description:                  optString(desired.Description),
		GlossaryTerms:                desired.GlossaryTerms,
		UserParameters:               environmentParameters(desired.UserParameters),
	})
	if err != nil {
		return Environment{}, err
	}
	created := desired
	created.ID = aws.ToString(out.Id)
	created.Status = string(out.Status)
	return created, nil
}

// Read carries the desired user parameters over: the control plane reports
// resolved parameters in a different shape.
func (a *environmentAPI) Read(ctx context.Context, current Environment) (engine.Observation[Environment], error) {
	out, err := a.api.GetEnvironment(ctx, &datazone.GetEnvironmentInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	if err != nil {
		return engine.Observation[Environment]{}, err
	}
	status := string(out.Status)
	var reason string
	if out.LastDeployment != nil && out.LastDeployment.FailureReason != nil {
		reason = aws.ToString(out.LastDeployment.FailureReason.Message)
	}
	return engine.Observation[Environment]{
		Model: Environment{
			DomainID:             aws.ToString(out.DomainId),
			ProjectID:            aws.ToString(out.ProjectId),
			ID:                   aws.ToString(out.Id),
			Name:                 aws.ToString(out.Name),
			Description:          aws.ToString(out.Description),
			EnvironmentProfileID: aws.ToString(out.EnvironmentProfileId),
			GlossaryTerms:        out.GlossaryTerms,
			UserParameters:       current.UserParameters,
			Provider:             aws.ToString(out.Provider),
			Status:               status,
		},
		Status:        status,
		StatusMessage: reason,
	}, nil
}

func (a *environmentAPI) Update(ctx context.Context, desired, previous Environment) (Environment, error) {
	_, err := a.api.UpdateEnvironment(ctx, &datazone.UpdateEnvironmentInput{
		DomainIdentifier: aws.String(previous.DomainID),
		Identifier:       aws.String(previous.ID),
		Name:             optString(desired.Name),
		Description:      optString(desired.Description),
		GlossaryTerms:    desired.GlossaryTerms,
	})
	if err != nil {
		return Environment{}, err
	}
	updated := desired
	updated.DomainID = previous.DomainID
	updated.ID = previous.ID
	return updated, nil
}

func (a *environmentAPI) Delete(ctx context.Context, current Environment) error {
	_, err := a.api.DeleteEnvironment(ctx, &datazone.DeleteEnvironmentInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	return err
}

func (a *environmentAPI) List(ctx context.Context, filter Environment, nextToken string) ([]Environment, string, error) {
	out, err := a.api.ListEnvironments(ctx, &datazone.ListEnvironmentsInput{
		DomainIdentifier:  aws.String(filter.DomainID),
		ProjectIdentifier: aws.String(filter.ProjectID),
		MaxResults:        pageSize(),
		NextToken:         optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	envs := make([]Environment, 0, len(out.Items))
	for _, item := range out.Items {
		envs = append(envs, Environment{
			DomainID:             aws.ToString(item.DomainId),
			ProjectID:            aws.ToString(item.ProjectId),
			ID:                   aws.ToString(item.Id),
			Name:                 aws.ToString(item.Name),
			Description:          aws.ToString(item.Description),
			EnvironmentProfileID: aws.ToString(item.EnvironmentProfileId),
			Provider:             aws.ToString(item.Provider),
			Status:               string(item.Status),
		})
	}
	return envs, aws.ToString(out.NextToken), nil
}
