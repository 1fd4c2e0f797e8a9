package datazone

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeEnvironmentProfile is the registry key of the EnvironmentProfile
// resource type.
const TypeEnvironmentProfile = "AWS::DataZone::EnvironmentProfile"

// EnvironmentProfile is the model of a DataZone environment profile. The
// control plane reports no status for profiles.
type EnvironmentProfile struct {
	DomainID               string      `json:"domain_id"`
	ProjectID              string      `json:"project_id"`
	ID                     string      `json:"id,omitempty"`
	Name                   string      `json:"name"`
	Description            string      `json:"description,omitempty"`
	EnvironmentBlueprintID string      `json:"environment_blueprint_id"`
	AwsAccountID           string      `json:"aws_account_id,omitempty"`
	AwsAccountRegion       string      `json:"aws_account_region,omitempty"`
	UserParameters         []Parameter `json:"user_parameters,omitempty"`
}

func newEnvironmentProfileResource(p engine.Policy) *engine.Resource[EnvironmentProfile] {
	return &engine.Resource[EnvironmentProfile]{
		TypeName: TypeEnvironmentProfile,
		Policy:   p,
		Create:   existsSets,
		Update:   existsSets,
		Delete:   existsDeletedSets,
		Identify: func(e EnvironmentProfile) string { return identity(e.DomainID, e.ID) },
	}
}

type environmentProfileAPI struct {
	api API
}

func (a *environmentProfileAPI) Create(ctx context.Context, desired EnvironmentProfile) (EnvironmentProfile, error) {
	out, err := a.api.CreateEnvironmentProfile(ctx, &datazone.CreateEnvironmentProfileInput{
		DomainIdentifier:               aws.String(desired.DomainID),
		ProjectIdentifier:              aws.String(desired.ProjectID),
		EnvironmentBlueprintIdentifier: aws.String(desired.EnvironmentBlueprintID),
		Name:                           aws.String(desired.Name),
		Description:                    optString(desired.Description),
		AwsAccountId:                   optString(desired.AwsAccountID),
		AwsAccountRegion:               optString(desired.AwsAccountRegion),
		UserParameters:                 environmentParameters(desired.UserParameters),
	})
	if err != nil {
		return EnvironmentProfile{}, err
	}
	created := desired
	created.ID = aws.ToString(out.Id)
	return created, nil
}

func (a *environmentProfileAPI) Read(
	ctx context.Context, current EnvironmentProfile,
) (engine.Observation[EnvironmentProfile], error) {
	out, err := a.api.GetEnvironmentProfile(ctx, &datazone.GetEnvironmentProfileInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	if err != nil {
		return engine.Observation[EnvironmentProfile]{}, err
	}
	return engine.Observation[EnvironmentProfile]{
		Model: EnvironmentProfile{
			DomainID:               aws.ToString(out.DomainId),
			ProjectID:              aws.ToString(out.ProjectId),
			ID:                     aws.ToString(out.Id),
			Name:                   aws.ToString(out.Name),
			Description:            aws.ToString(out.Description),
			EnvironmentBlueprintID: aws.ToString(out.EnvironmentBlueprintId),
			AwsAccountID:           aws.ToString(out.AwsAccountId),
			AwsAccountRegion:       aws.ToString(out.AwsAccountRegion),
			UserParameters:         current.UserParameters,
		},
		Status: statusExists,
	}, nil
}

func (a *environmentProfileAPI) Update(
	ctx context.Context, desired, previous EnvironmentProfile,
) (EnvironmentProfile, error) {
	_, err := a.api.UpdateEnvironmentProfile(ctx, &datazone.UpdateEnvironmentProfileInput{
		DomainIdentifier: aws.String(previous.DomainID),
		Identifier:       aws.String(previous.ID),
		Name:             optString(desired.Name),
		Description:      optString(desired.Description),
		AwsAccountId:     optString(desired.AwsAccountID),
		AwsAccountRegion: optString(desired.AwsAccountRegion),
		UserParameters:   environmentParameters(desired.UserParameters),
	})
	if err != nil {
		return EnvironmentProfile{}, err
	}
	updated := desired
	updated.DomainID = previous.DomainID
	updated.ID = previous.ID
	return updated, nil
}

func (a *environmentProfileAPI) Delete(ctx context.Context, current EnvironmentProfile) error {
	_, err := a.api.DeleteEnvironmentProfile(ctx, &datazone.DeleteEnvironmentProfileInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	return err
}

func (a *environmentProfileAPI) List(
	ctx context.Context, filter EnvironmentProfile, nextToken string,
) ([]EnvironmentProfile, string, error) {
	out, err := a.api.ListEnvironmentProfiles(ctx, &datazone.ListEnvironmentProfilesInput{
		DomainIdentifier:  aws.String(filter.DomainID),
		ProjectIdentifier: optString(filter.ProjectID),
		MaxResults:        pageSize(),
		NextToken:         optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	profiles := make([]EnvironmentProfile, 0, len(out.Items))
	for _, item := range out.Items {
		profiles = append(profiles, EnvironmentProfile{
			DomainID:               aws.ToString(item.DomainId),
			ProjectID:              aws.ToString(item.ProjectId),
			ID:                     aws.ToString(item.Id),
			Name:                   aws.ToString(item.Name),
			Description:            aws.ToString(item.Description),
			EnvironmentBlueprintID: aws.ToString(item.EnvironmentBlueprintId),
			AwsAccountID:           aws.ToString(item.AwsAccountId),
			AwsAccountRegion:       aws.ToString(item.AwsAccountRegion),
		})
	}
	return profiles, aws.ToString(out.NextToken), nil
}
