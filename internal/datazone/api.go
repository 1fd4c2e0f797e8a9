// Package datazone instantiates the reconciliation engine for the Amazon
// DataZone resource family. Each resource type is declared as data (status
// sets, retry policy, classifier overrides) plus a thin translator between its
// model and the DataZone request and response shapes.
package datazone

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/datazone"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// API is the subset of the DataZone control-plane client used by the
// translators. *datazone.Client satisfies it; tests substitute a fake.
type API interface {
	CreateDomain(ctx context.Context, in *datazone.CreateDomainInput, optFns ...func(*datazone.Options)) (*datazone.CreateDomainOutput, error)
	GetDomain(ctx context.Context, in *datazone.GetDomainInput, optFns ...func(*datazone.Options)) (*datazone.GetDomainOutput, error)
	UpdateDomain(ctx context.Context, in *datazone.UpdateDomainInput, optFns ...func(*datazone.Options)) (*datazone.UpdateDomainOutput, error)
	DeleteDomain(ctx context.Context, in *datazone.DeleteDomainInput, optFns ...func(*datazone.Options)) (*datazone.DeleteDomainOutput, error)
	ListDomains(ctx context.Context, in *datazone.ListDomainsInput, optFns ...func(*datazone.Options)) (*datazone.ListDomainsOutput, error)

	CreateProject(ctx context.Context, in *datazone.CreateProjectInput, optFns ...func(*datazone.Options)) (*datazone.CreateProjectOutput, error)
	GetProject(ctx context.Context, in *datazone.GetProjectInput, optFns ...func(*datazone.Options)) (*datazone.GetProjectOutput, error)
	UpdateProject(ctx context.Context, in *datazone.UpdateProjectInput, optFns ...func(*datazone.Options)) (*datazone.UpdateProjectOutput, error)
	DeleteProject(ctx context.Context, in *datazone.DeleteProjectInput, optFns ...func(*datazone.Options)) (*datazone.DeleteProjectOutput, error)
	ListProjects(ctx context.Context, in *datazone.ListProjectsInput, optFns ...func(*datazone.Options)) (*datazone.ListProjectsOutput, error)

	CreateEnvironment(ctx context.Context, in *datazone.CreateEnvironmentInput, optFns ...func(*datazone.Options)) (*datazone.CreateEnvironmentOutput, error)
	GetEnvironment(ctx context.Context, in *datazone.GetEnvironmentInput, optFns ...func(*datazone.Options)) (*datazone.GetEnvironmentOutput, error)
	UpdateEnvironment(ctx context.Context, in *datazone.UpdateEnvironmentInput, optFns ...func(*datazone.Options)) (*datazone.UpdateEnvironmentOutput, error)
	DeleteEnvironment(ctx context.Context, in *datazone.DeleteEnvironmentInput, optFns ...func(*datazone.Options)) (*datazone.DeleteEnvironmentOutput, error)
	ListEnvironments(ctx context.Context, in *datazone.ListEnvironmentsInput, optFns ...func(*datazone.Options)) (*datazone.ListEnvironmentsOutput, error)

	CreateDataSource(ctx context.Context, in *datazone.CreateDataSourceInput, optFns ...func(*datazone.Options)) (*datazone.CreateDataSourceOutput, error)
	GetDataSource(ctx context.Context, in *datazone.GetDataSourceInput, optFns ...func(*datazone.Options)) (*datazone.GetDataSourceOutput, error)
	UpdateDataSource(ctx context.Context, in *datazone.UpdateDataSourceInput, optFns ...func(*datazone.Options)) (*datazone.UpdateDataSourceOutput, error)
	DeleteDataSource(ctx context.Context, in *datazone.DeleteDataSourceInput, optFns ...func(*datazone.Options)) (*datazone.DeleteDataSourceOutput, error)
	ListDataSources(ctx context.Context, in *datazone.ListDataSourcesInput, optFns ...func(*datazone.Options)) (*datazone.ListDataSourcesOutput, error)

	CreateEnvironmentProfile(ctx context.Context, in *datazone.CreateEnvironmentProfileInput, optFns ...func(*datazone.Options)) (*datazone.CreateEnvironmentProfileOutput, error)
	GetEnvironmentProfile(ctx context.Context, in *datazone.GetEnvironmentProfileInput, optFns ...func(*datazone.Options)) (*datazone.GetEnvironmentProfileOutput, error)
	UpdateEnvironmentProfile(ctx context.Context, in *datazone.UpdateEnvironmentProfileInput, optFns ...func(*datazone.Options)) (*datazone.UpdateEnvironmentProfileOutput, error)
	DeleteEnvironmentProfile(ctx context.Context, in *datazone.DeleteEnvironmentProfileInput, optFns ...func(*datazone.Options)) (*datazone.DeleteEnvironmentProfileOutput, error)
	ListEnvironmentProfiles(ctx context.Context, in *datazone.ListEnvironmentProfilesInput, optFns ...func(*datazone.Options)) (*datazone.ListEnvironmentProfilesOutput, error)

	CreateProjectMembership(ctx context.Context, in *datazone.CreateProjectMembershipInput, optFns ...func(*datazone.Options)) (*datazone.CreateProjectMembershipOutput, error)
	DeleteProjectMembership(ctx context.Context, in *datazone.DeleteProjectMembershipInput, optFns ...func(*datazone.Options)) (*datazone.DeleteProjectMembershipOutput, error)
	ListProjectMemberships(ctx context.Context, in *datazone.ListProjectMembershipsInput, optFns ...func(*datazone.Options)) (*datazone.ListProjectMembershipsOutput, error)
}

var _ API = (*datazone.Client)(nil)

// listPageSize is the MaxResults value used by List translators.
const listPageSize = 50

// statusExists is the synthetic status reported by types that have no
// remote status field. Any successful read means the resource exists.
const statusExists = "EXISTS"

// Status partitions of statusless types: creation and update settle on the
// first successful read, deletion keeps polling until the read is NotFound.
var (
	existsSets        = engine.StatusSets{Stable: []string{statusExists}}
	existsDeletedSets = engine.StatusSets{Transient: []string{statusExists}}
)
