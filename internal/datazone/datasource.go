package datazone

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/aws/aws-sdk-go-v2/service/datazone/types"
	"github.com/google/uuid"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeDataSource is the registry key of the DataSource resource type.
const TypeDataSource = "AWS::DataZone::DataSource"

// DataSource is the model of a DataZone data catalog ingestion source.
type DataSource struct {
	DomainID        string `json:"domain_id"`
	ProjectID       string `json:"project_id"`
	EnvironmentID   string `json:"environment_id,omitempty"`
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Type            string `json:"type"`
	EnableSetting   string `json:"enable_setting,omitempty"`
	PublishOnImport bool   `json:"publish_on_import,omitempty"`
	Status          string `json:"status,omitempty"`
}

func newDataSourceResource(p engine.Policy) *engine.Resource[DataSource] {
	return &engine.Resource[DataSource]{
		TypeName: TypeDataSource,
		Policy:   p,
		Create: engine.StatusSets{
			Stable:    []string{"READY", "RUNNING"},
			Transient: []string{"CREATING"},
			Failed:    []string{"FAILED_CREATION"},
		},
		Update: engine.StatusSets{
			Stable:    []string{"READY", "RUNNING"},
			Transient: []string{"UPDATING"},
			Failed:    []string{"FAILED_UPDATE"},
		},
		Delete: engine.StatusSets{
			Transient: []string{"DELETING"},
			Failed:    []string{"FAILED_DELETION"},
		},
		Identify: func(d DataSource) string { return identity(d.DomainID, d.ID) },
	}
}

type dataSourceAPI struct {
	api API
}

func (a *dataSourceAPI) Create(ctx context.Context, desired DataSource) (DataSource, error) {
	out, err := a.api.CreateDataSource(ctx, &datazone.CreateDataSourceInput{
		DomainIdentifier:      aws.String(desired.DomainID),
		ProjectIdentifier:     aws.String(desired.ProjectID),
		EnvironmentIdentifier: optString(desired.EnvironmentID),
		Name:                  aws.String(desired.Name),
		Description:           optString(desired.Description),
		Type:                  aws.String(desired.Type),
		EnableSetting:         types.EnableSetting(desired.EnableSetting),
		PublishOnImport:       aws.Bool(desired.PublishOnImport),
		ClientToken:           aws.String(uuid.NewString()),
	})
	if err != nil {
		return DataSource{}, err
	}
	created := desired
	created.ID = aws.ToString(out.Id)
	created.Status = string(out.Status)
	return created, nil
}

func (a *dataSourceAPI) Read(ctx context.Context, current DataSource) (engine.Observation[DataSource], error) {
	out, err := a.api.GetDataSource(ctx, &datazone.GetDataSourceInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
	})
	if err != nil {
		return engine.Observation[DataSource]{}, err
	}
	status := string(out.Status)
	return engine.Observation[DataSource]{
		Model: DataSource{
			DomainID:        aws.ToString(out.DomainId),
			ProjectID:       aws.ToString(out.ProjectId),
			EnvironmentID:   aws.ToString(out.EnvironmentId),
			ID:              aws.ToString(out.Id),
			Name:            aws.ToString(out.Name),
			Description:     aws.ToString(out.Description),
			Type:            aws.ToString(out.Type),
			EnableSetting:   string(out.EnableSetting),
			PublishOnImport: aws.ToBool(out.PublishOnImport),
			Status:          status,
		},
		Status:        status,
		StatusMessage: dataSourceFailure(out.ErrorMessage),
	}, nil
}

func dataSourceFailure(msg *types.DataSourceErrorMessage) string {
	if msg == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", msg.ErrorType, aws.ToString(msg.ErrorDetail))
}

func (a *dataSourceAPI) Update(ctx context.Context, desired, previous DataSource) (DataSource, error) {
	_, err := a.api.UpdateDataSource(ctx, &datazone.UpdateDataSourceInput{
		DomainIdentifier: aws.String(previous.DomainID),
		Identifier:       aws.String(previous.ID),
		Name:             optString(desired.Name),
		Description:      optString(desired.Description),
		EnableSetting:    types.EnableSetting(desired.EnableSetting),
		PublishOnImport:  aws.Bool(desired.PublishOnImport),
	})
	if err != nil {
		return DataSource{}, err
	}
	updated := desired
	updated.DomainID = previous.DomainID
	updated.ID = previous.ID
	return updated, nil
}

func (a *dataSourceAPI) Delete(ctx context.Context, current DataSource) error {
	_, err := a.api.DeleteDataSource(ctx, &datazone.DeleteDataSourceInput{
		DomainIdentifier: aws.String(current.DomainID),
		Identifier:       aws.String(current.ID),
		ClientToken:      aws.String(uuid.NewString()),
	})
	return err
}

func (a *dataSourceAPI) List(ctx context.Context, filter DataSource, nextToken string) ([]DataSource, string, error) {
	out, err := a.api.ListDataSources(ctx, &datazone.ListDataSourcesInput{
		DomainIdentifier:      aws.String(filter.DomainID),
		ProjectIdentifier:     aws.String(filter.ProjectID),
		EnvironmentIdentifier: optString(filter.EnvironmentID),
		MaxResults:            pageSize(),
		NextToken:             optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	sources := make([]DataSource, 0, len(out.Items))
	for _, item := range out.Items {
		sources = append(sources, DataSource{
			DomainID:      aws.ToString(item.DomainId),
			ProjectID:     filter.ProjectID,
			EnvironmentID: aws.ToString(item.EnvironmentId),
			ID:            aws.ToString(item.DataSourceId),
			Name:          aws.ToString(item.Name),
			Type:          aws.ToString(item.Type),
			EnableSetting: string(item.EnableSetting),
			Status:        string(item.Status),
		})
	}
	return sources, aws.ToString(out.NextToken), nil
}
