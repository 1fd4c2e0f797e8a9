package datazone

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/aws/aws-sdk-go-v2/service/datazone/types"
	"github.com/aws/smithy-go"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// fakeDataZone scripts the DataZone control plane. Unscripted methods panic
// through the nil embedded API.
type fakeDataZone struct {
	API

	createDomainIn  *datazone.CreateDomainInput
	createDomainErr error
	domainStatuses  []types.DomainStatus
	domainReads     int
	domainTags      map[string]string
	deleteDomainErr error
	getDomainErr    error

	createProjectErr error
	getProjectErr    error

	createEnvironmentErr error

	dataSourceStatus types.DataSourceStatus
	dataSourceError  *types.DataSourceErrorMessage

	profileDeleted bool

	memberPages       [][]types.ProjectMember
	memberListCalls   int
	deleteMemberErr   error
	deleteMemberCalls int
	createMemberErr   error
	createMemberCalls int
	createMemberIn    *datazone.CreateProjectMembershipInput
}

func apiErr(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

func (f *fakeDataZone) CreateDomain(
	_ context.Context, in *datazone.CreateDomainInput, _ ...func(*datazone.Options),
) (*datazone.CreateDomainOutput, error) {
	f.createDomainIn = in
	if f.createDomainErr != nil {
		return nil, f.createDomainErr
	}
	f.domainTags = in.Tags
	return &datazone.CreateDomainOutput{
		Id:     aws.String("dzd_1"),
		Arn:    aws.String("arn:aws:datazone:us-east-1:123456789012:domain/dzd_1"),
		Name:   in.Name,
		Status: types.DomainStatusCreating,
	}, nil
}

func (f *fakeDataZone) GetDomain(
	_ context.Context, in *datazone.GetDomainInput, _ ...func(*datazone.Options),
) (*datazone.GetDomainOutput, error) {
	if f.getDomainErr != nil {
		return nil, f.getDomainErr
	}
	i := min(f.domainReads, len(f.domainStatuses)-1)
	f.domainReads++
	return &datazone.GetDomainOutput{
		Id:                  in.Identifier,
		Name:                aws.String("sales"),
		DomainExecutionRole: aws.String("arn:aws:iam::123456789012:role/dz"),
		PortalUrl:           aws.String("https://dzd_1.datazone.aws"),
		Status:              f.domainStatuses[i],
		Tags:                f.domainTags,
	}, nil
}

func (f *fakeDataZone) DeleteDomain(
	_ context.Context, _ *datazone.DeleteDomainInput, _ ...func(*datazone.Options),
) (*datazone.DeleteDomainOutput, error) {
	if f.deleteDomainErr != nil {
		return nil, f.deleteDomainErr
	}
	return &datazone.DeleteDomainOutput{Status: types.DomainStatusDeleting}, nil
}

func (f *fakeDataZone) ListDomains(
	_ context.Context, in *datazone.ListDomainsInput, _ ...func(*datazone.Options),
) (*datazone.ListDomainsOutput, error) {
	if aws.ToString(in.NextToken) == "" {
		return &datazone.ListDomainsOutput{
			Items:     []types.DomainSummary{{Id: aws.String("dzd_1"), Name: aws.String("a"), Status: types.DomainStatusAvailable}},
			NextToken: aws.String("page-2"),
		}, nil
	}
	return &datazone.ListDomainsOutput{
		Items: []types.DomainSummary{{Id: aws.String("dzd_2"), Name: aws.String("b"), Status: types.DomainStatusAvailable}},
	}, nil
}

func (f *fakeDataZone) CreateProject(
	_ context.Context, in *datazone.CreateProjectInput, _ ...func(*datazone.Options),
) (*datazone.CreateProjectOutput, error) {
	if f.createProjectErr != nil {
		return nil, f.createProjectErr
	}
	return &datazone.CreateProjectOutput{Id: aws.String("prj_1"), DomainId: in.DomainIdentifier, Name: in.Name}, nil
}

func (f *fakeDataZone) GetProject(
	_ context.Context, in *datazone.GetProjectInput, _ ...func(*datazone.Options),
) (*datazone.GetProjectOutput, error) {
	if f.getProjectErr != nil {
		return nil, f.getProjectErr
	}
	return &datazone.GetProjectOutput{
		Id: in.Identifier, DomainId: in.DomainIdentifier, Name: aws.String("analytics"),
		ProjectStatus: types.ProjectStatusActive,
	}, nil
}

func (f *fakeDataZone) CreateEnvironment(
	_ context.Context, _ *datazone.CreateEnvironmentInput, _ ...func(*datazone.Options),
) (*datazone.CreateEnvironmentOutput, error) {
	return nil, f.createEnvironmentErr
}

func (f *fakeDataZone) CreateDataSource(
	_ context.Context, in *datazone.CreateDataSourceInput, _ ...func(*datazone.Options),
) (*datazone.CreateDataSourceOutput, error) {
	return &datazone.CreateDataSourceOutput{
		Id: aws.String("ds_1"), DomainId: in.DomainIdentifier, Name: in.Name,
		Status: types.DataSourceStatusCreating,
	}, nil
}

func (f *fakeDataZone) GetDataSource(
	_ context.Context, in *datazone.GetDataSourceInput, _ ...func(*datazone.Options),
) (*datazone.GetDataSourceOutput, error) {
	return &datazone.GetDataSourceOutput{
		Id: in.Identifier, DomainId: in.DomainIdentifier, Name: aws.String("glue"),
		Status: f.dataSourceStatus, ErrorMessage: f.dataSourceError,
	}, nil
}

func (f *fakeDataZone) CreateEnvironmentProfile(
	_ context.Context, in *datazone.CreateEnvironmentProfileInput, _ ...func(*datazone.Options),
) (*datazone.CreateEnvironmentProfileOutput, error) {
	return &datazone.CreateEnvironmentProfileOutput{
		Id: aws.String("ep_1"), DomainId: in.DomainIdentifier, Name: in.Name,
	}, nil
}

func (f *fakeDataZone) GetEnvironmentProfile(
	_ context.Context, in *datazone.GetEnvironmentProfileInput, _ ...func(*datazone.Options),
) (*datazone.GetEnvironmentProfileOutput, error) {
	if f.profileDeleted {
		return nil, apiErr(engine.CodeResourceNotFound, "profile not found")
	}
	return &datazone.GetEnvironmentProfileOutput{
		Id: in.Identifier, DomainId: in.DomainIdentifier, Name: aws.String("dev"),
		ProjectId: aws.String("prj_1"), EnvironmentBlueprintId: aws.String("bp_1"),
	}, nil
}

func (f *fakeDataZone) DeleteEnvironmentProfile(
	_ context.Context, _ *datazone.DeleteEnvironmentProfileInput, _ ...func(*datazone.Options),
) (*datazone.DeleteEnvironmentProfileOutput, error) {
	return &datazone.DeleteEnvironmentProfileOutput{}, nil
}

func (f *fakeDataZone) CreateProjectMembership(
	_ context.Context, in *datazone.CreateProjectMembershipInput, _ ...func(*datazone.Options),
) (*datazone.CreateProjectMembershipOutput, error) {
	f.createMemberCalls++
	f.createMemberIn = in
	if f.createMemberErr != nil {
		return nil, f.createMemberErr
	}
	return &datazone.CreateProjectMembershipOutput{}, nil
}

func (f *fakeDataZone) DeleteProjectMembership(
	_ context.Context, in *datazone.DeleteProjectMembershipInput, _ ...func(*datazone.Options),
) (*datazone.DeleteProjectMembershipOutput, error) {
	f.deleteMemberCalls++
	if f.deleteMemberErr != nil {
		return nil, f.deleteMemberErr
	}
	for i, page := range f.memberPages {
		kept := page[:0:0]
		for _, pm := range page {
			if memberKey(pm.MemberDetails) != memberKey(in.Member) {
				kept = append(kept, pm)
			}
		}
		f.memberPages[i] = kept
	}
	return &datazone.DeleteProjectMembershipOutput{}, nil
}

// memberKey renders a member identifier or member details as "user:<id>" or
// "group:<id>".
func memberKey(v any) string {
	switch m := v.(type) {
	case *types.MemberMemberUserIdentifier:
		return "user:" + m.Value
	case *types.MemberMemberGroupIdentifier:
		return "group:" + m.Value
	case *types.MemberDetailsMemberUser:
		return "user:" + aws.ToString(m.Value.UserId)
	case *types.MemberDetailsMemberGroup:
		return "group:" + aws.ToString(m.Value.GroupId)
	default:
		return ""
	}
}

// members lists the keys of every remaining member.
func (f *fakeDataZone) members() []string {
	var keys []string
	for _, page := range f.memberPages {
		for _, pm := range page {
			keys = append(keys, memberKey(pm.MemberDetails))
		}
	}
	return keys
}

// ListProjectMemberships serves memberPages, using the page index as token.
func (f *fakeDataZone) ListProjectMemberships(
	_ context.Context, in *datazone.ListProjectMembershipsInput, _ ...func(*datazone.Options),
) (*datazone.ListProjectMembershipsOutput, error) {
	f.memberListCalls++
	page := 0
	if tok := aws.ToString(in.NextToken); tok != "" {
		if err := json.Unmarshal([]byte(tok), &page); err != nil {
			return nil, err
		}
	}
	if page >= len(f.memberPages) {
		return &datazone.ListProjectMembershipsOutput{}, nil
	}
	out := &datazone.ListProjectMembershipsOutput{Members: f.memberPages[page]}
	if page+1 < len(f.memberPages) {
		b, _ := json.Marshal(page + 1)
		out.NextToken = aws.String(string(b))
	}
	return out, nil
}

func userMember(id string, designation types.UserDesignation) types.ProjectMember {
	return types.ProjectMember{
		Designation:   designation,
		MemberDetails: &types.MemberDetailsMemberUser{Value: types.UserDetails{UserId: aws.String(id)}},
	}
}

func groupMember(id string, designation types.UserDesignation) types.ProjectMember {
	return types.ProjectMember{
		Designation:   designation,
		MemberDetails: &types.MemberDetailsMemberGroup{Value: types.GroupDetails{GroupId: aws.String(id)}},
	}
}

func newTestRegistry(t *testing.T, api API) *engine.Registry {
	t.Helper()
	reg := engine.NewRegistry()
	if err := Register(reg, api, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}

func invoke(t *testing.T, reg *engine.Registry, req engine.RawRequest) engine.RawResult {
	t.Helper()
	out, err := reg.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke %s %s: %v", req.TypeName, req.Operation, err)
	}
	return out
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
