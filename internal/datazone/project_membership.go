package datazone

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/aws/aws-sdk-go-v2/service/datazone/types"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeProjectMembership is the registry key of the ProjectMembership resource
// type.
const TypeProjectMembership = "AWS::DataZone::ProjectMembership"

// ProjectMembership is the model of a user or group membership in a project.
// Exactly one of MemberUserID and MemberGroupID is set.
type ProjectMembership struct {
	DomainID      string `json:"domain_id"`
	ProjectID     string `json:"project_id"`
	MemberUserID  string `json:"member_user_id,omitempty"`
	MemberGroupID string `json:"member_group_id,omitempty"`
	Designation   string `json:"designation"`
}

func (m ProjectMembership) memberID() string {
	if m.MemberUserID != "" {
		return m.MemberUserID
	}
	return m.MemberGroupID
}

func (m ProjectMembership) member() types.Member {
	if m.MemberUserID != "" {
		return &types.MemberMemberUserIdentifier{Value: m.MemberUserID}
	}
	return &types.MemberMemberGroupIdentifier{Value: m.MemberGroupID}
}

func newProjectMembershipResource(p engine.Policy) *engine.Resource[ProjectMembership] {
	return &engine.Resource[ProjectMembership]{
		TypeName: TypeProjectMembership,
		Policy:   p,
		Create:   existsSets,
		Update:   existsSets,
		Delete:   existsDeletedSets,
		Classifier: engine.NewClassifier(engine.Override{
			Operation: engine.OpDelete,
			Code:      engine.CodeValidation,
			Substring: "is not a member",
			Kind:      engine.KindNotFound,
		}),
		Identify: func(m ProjectMembership) string {
			return identity(m.DomainID, m.ProjectID, m.memberID())
		},
	}
}

type projectMembershipAPI struct {
	api API
}

// sameMember reports whether m and other name the same member of the same
// project.
func (m ProjectMembership) sameMember(other ProjectMembership) bool {
	return m.DomainID == other.DomainID && m.ProjectID == other.ProjectID &&
		m.MemberUserID == other.MemberUserID && m.MemberGroupID == other.MemberGroupID
}

func validateMember(m ProjectMembership, op engine.Operation) error {
	if (m.MemberUserID == "") == (m.MemberGroupID == "") {
		return &engine.HandlerError{
			Kind:         engine.KindInvalidRequest,
			ResourceType: TypeProjectMembership,
			Operation:    op,
			Message:      "exactly one of member_user_id and member_group_id is required",
		}
	}
	return nil
}

func (a *projectMembershipAPI) Create(ctx context.Context, desired ProjectMembership) (ProjectMembership, error) {
	if err := validateMember(desired, engine.OpCreate); err != nil {
		return ProjectMembership{}, err
	}
	_, err := a.api.CreateProjectMembership(ctx, &datazone.CreateProjectMembershipInput{
		DomainIdentifier:  aws.String(desired.DomainID),
		ProjectIdentifier: aws.String(desired.ProjectID),
		Designation:       types.UserDesignation(desired.Designation),
		Member:            desired.member(),
	})
	if err != nil {
		return ProjectMembership{}, err
	}
	return desired, nil
}

// Read pages through the project's memberships; there is no single-member
// lookup.
func (a *projectMembershipAPI) Read(
	ctx context.Context, current ProjectMembership,
) (engine.Observation[ProjectMembership], error) {
	var token *string
	for {
		out, err := a.api.ListProjectMemberships(ctx, &datazone.ListProjectMembershipsInput{
			DomainIdentifier:  aws.String(current.DomainID),
			ProjectIdentifier: aws.String(current.ProjectID),
			MaxResults:        pageSize(),
			NextToken:         token,
		})
		if err != nil {
			return engine.Observation[ProjectMembership]{}, err
		}
		for _, pm := range out.Members {
			m, ok := membershipFromMember(current, pm)
			if ok && m.memberID() == current.memberID() {
				return engine.Observation[ProjectMembership]{Model: m, Status: statusExists}, nil
			}
		}
		if aws.ToString(out.NextToken) == "" {
			break
		}
		token = out.NextToken
	}
	return engine.Observation[ProjectMembership]{}, &types.ResourceNotFoundException{
		Message: aws.String(fmt.Sprintf("%s is not a member of project %s", current.memberID(), current.ProjectID)),
	}
}

func membershipFromMember(scope ProjectMembership, pm types.ProjectMember) (ProjectMembership, bool) {
	m := ProjectMembership{
		DomainID:    scope.DomainID,
		ProjectID:   scope.ProjectID,
		Designation: string(pm.Designation),
	}
	switch d := pm.MemberDetails.(type) {
	case *types.MemberDetailsMemberUser:
		m.MemberUserID = aws.ToString(d.Value.UserId)
	case *types.MemberDetailsMemberGroup:
		m.MemberGroupID = aws.ToString(d.Value.GroupId)
	default:
		return m, false
	}
	return m, true
}

// Update has no DataZone counterpart. A designation change re-issues the
// create for the same member. A different member is added before the
// previous one is removed, so a rejected create leaves the project unchanged.
func (a *projectMembershipAPI) Update(
	ctx context.Context, desired, previous ProjectMembership,
) (ProjectMembership, error) {
	if err := validateMember(desired, engine.OpUpdate); err != nil {
		return ProjectMembership{}, err
	}
	if desired.sameMember(previous) {
		if desired.Designation == previous.Designation {
			return desired, nil
		}
		return a.Create(ctx, desired)
	}
	created, err := a.Create(ctx, desired)
	if err != nil {
		return ProjectMembership{}, err
	}
	if err := a.Delete(ctx, previous); err != nil {
		return ProjectMembership{}, err
	}
	return created, nil
}

func (a *projectMembershipAPI) Delete(ctx context.Context, current ProjectMembership) error {
	_, err := a.api.DeleteProjectMembership(ctx, &datazone.DeleteProjectMembershipInput{
		DomainIdentifier:  aws.String(current.DomainID),
		ProjectIdentifier: aws.String(current.ProjectID),
		Member:            current.member(),
	})
	return err
}

func (a *projectMembershipAPI) List(
	ctx context.Context, filter ProjectMembership, nextToken string,
) ([]ProjectMembership, string, error) {
	out, err := a.api.ListProjectMemberships(ctx, &datazone.ListProjectMembershipsInput{
		DomainIdentifier:  aws.String(filter.DomainID),
		ProjectIdentifier: aws.String(filter.ProjectID),
		MaxResults:        pageSize(),
		NextToken:         optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	members := make([]ProjectMembership, 0, len(out.Members))
	for _, pm := range out.Members {
		if m, ok := membershipFromMember(filter, pm); ok {
			members = append(members, m)
		}
	}
	return members, aws.ToString(out.NextToken), nil
}
