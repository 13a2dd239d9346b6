// internal/app/membership/engine.go

// Package membership implements every mutation of the group-formation
// lifecycle: creating groups, applications, invitations, removals, freezes
// and deletions. All operations are linear chains of independent store
// writes; there is no transaction boundary and no rollback, so a failure
// mid-chain leaves the earlier writes in place. Handlers own presentation;
// the engine owns ordering, authorization and the status label rules.
package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	applicationstore "github.com/campushub/groupify/internal/app/store/applications"
	groupstore "github.com/campushub/groupify/internal/app/store/groups"
	invitationstore "github.com/campushub/groupify/internal/app/store/invitations"
	memberstore "github.com/campushub/groupify/internal/app/store/members"
	messagestore "github.com/campushub/groupify/internal/app/store/messages"
	profilestore "github.com/campushub/groupify/internal/app/store/profiles"
	settingsstore "github.com/campushub/groupify/internal/app/store/settings"
	"github.com/campushub/groupify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrSystemFrozen means the admin froze the whole formation system;
	// create/apply/resolve/invite/accept are rejected while it is set.
	ErrSystemFrozen = errors.New("group formation is currently frozen")
	// ErrUnauthorized means the actor may not perform this mutation.
	ErrUnauthorized = errors.New("not authorized for this group operation")
	// ErrValidationFailed wraps input or precondition failures.
	ErrValidationFailed = errors.New("validation failed")
	// ErrCapacityExceeded means the group is already at max_members.
	ErrCapacityExceeded = errors.New("group is already full")
	// ErrNoGroupToInviteInto means the inviter has no current group.
	ErrNoGroupToInviteInto = errors.New("you need a group before inviting students")
	// ErrNotFound covers missing or already-resolved records.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateInvite means the group already has a pending invitation
	// for the invitee.
	ErrDuplicateInvite = invitationstore.ErrDuplicateInvite
)

// DeriveStatus maps a live member count to the stored status label.
// It never returns "frozen"; freezing is a separate flag with its own label
// transition in SetGroupFreeze.
func DeriveStatus(maxMembers, count int) string {
	switch {
	case count >= maxMembers:
		return models.StatusFull
	case count >= maxMembers-2:
		return models.StatusAlmostFull
	default:
		return models.StatusOpen
	}
}

// Engine coordinates the stores behind every membership mutation.
type Engine struct {
	profiles     *profilestore.Store
	groups       *groupstore.Store
	members      *memberstore.Store
	applications *applicationstore.Store
	invitations  *invitationstore.Store
	messages     *messagestore.Store
	settings     *settingsstore.Store
	log          *zap.Logger
}

func NewEngine(db *mongo.Database, log *zap.Logger) *Engine {
	return &Engine{
		profiles:     profilestore.New(db),
		groups:       groupstore.New(db),
		members:      memberstore.New(db),
		applications: applicationstore.New(db),
		invitations:  invitationstore.New(db),
		messages:     messagestore.New(db),
		settings:     settingsstore.New(db),
		log:          log,
	}
}

// requireUnfrozen is the hard gate every formation mutation passes first.
// Decline, leave and remove stay allowed while the system is frozen so
// existing groups can still be administered.
func (e *Engine) requireUnfrozen(ctx context.Context) error {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return err
	}
	if settings.IsSystemFrozen {
		return ErrSystemFrozen
	}
	return nil
}

/*──────────────────────────── group creation ───────────────────────────*/

// CreateGroup validates the form, verifies the leader's preconditions and
// writes, in order: group, leader membership, leader profile cache. No
// rollback on partial failure.
func (e *Engine) CreateGroup(ctx context.Context, leaderID primitive.ObjectID, name, description string, clusterID, maxMembers int, requiredSkills []string) (models.Group, error) {
	if err := e.requireUnfrozen(ctx); err != nil {
		return models.Group{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, fmt.Errorf("%w: group name is required", ErrValidationFailed)
	}
	if maxMembers < models.MinGroupSize || maxMembers > models.MaxGroupSize {
		return models.Group{}, fmt.Errorf("%w: max members must be between %d and %d",
			ErrValidationFailed, models.MinGroupSize, models.MaxGroupSize)
	}
	if len(requiredSkills) > models.MaxRequiredSkills {
		return models.Group{}, fmt.Errorf("%w: at most %d required skills", ErrValidationFailed, models.MaxRequiredSkills)
	}

	leader, err := e.profiles.GetByID(ctx, leaderID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Group{}, ErrNotFound
		}
		return models.Group{}, err
	}
	if !leader.ProfileCompleted {
		return models.Group{}, fmt.Errorf("%w: complete your profile first", ErrValidationFailed)
	}
	if leader.CurrentClusterID == nil {
		return models.Group{}, fmt.Errorf("%w: no cluster assigned", ErrValidationFailed)
	}
	if leader.CurrentGroupID != nil {
		return models.Group{}, fmt.Errorf("%w: you already belong to a group", ErrValidationFailed)
	}

	group, err := e.groups.Create(ctx, models.Group{
		Name:           name,
		Description:    description,
		ClusterID:      clusterID,
		LeaderID:       leaderID,
		MaxMembers:     maxMembers,
		RequiredSkills: requiredSkills,
	})
	if err != nil {
		return models.Group{}, err
	}

	if err := e.members.Add(ctx, group.ID, leaderID); err != nil {
		return models.Group{}, err
	}
	if err := e.profiles.SetGroup(ctx, leaderID, group.ID, models.RoleLeader); err != nil {
		return models.Group{}, err
	}

	e.log.Info("group created",
		zap.String("group_id", group.ID.Hex()),
		zap.String("leader_id", leaderID.Hex()),
		zap.Int("cluster_id", clusterID))
	return group, nil
}

/*──────────────────────────── applications ─────────────────────────────*/

// SubmitApplication files a pending application from a group-less student.
func (e *Engine) SubmitApplication(ctx context.Context, applicantID, groupID primitive.ObjectID, message string, skillsOffered []string) (models.GroupApplication, error) {
	if err := e.requireUnfrozen(ctx); err != nil {
		return models.GroupApplication{}, err
	}

	applicant, err := e.profiles.GetByID(ctx, applicantID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.GroupApplication{}, ErrNotFound
		}
		return models.GroupApplication{}, err
	}
	if !applicant.ProfileCompleted {
		return models.GroupApplication{}, fmt.Errorf("%w: complete your profile first", ErrValidationFailed)
	}
	if applicant.CurrentGroupID != nil {
		return models.GroupApplication{}, fmt.Errorf("%w: you already belong to a group", ErrValidationFailed)
	}

	if _, err := e.groups.GetByID(ctx, groupID); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.GroupApplication{}, ErrNotFound
		}
		return models.GroupApplication{}, err
	}

	return e.applications.Create(ctx, models.GroupApplication{
		GroupID:       groupID,
		ApplicantID:   applicantID,
		Message:       message,
		SkillsOffered: skillsOffered,
	})
}

// ResolveApplication accepts or rejects a pending application. Only the
// group's leader may resolve.
//
// Accept order: capacity check, member insert, applicant profile cache,
// status recompute (persisted only when changed, is_frozen not consulted),
// sweep-reject the applicant's other pending applications, stamp this
// application, system message. Reject only stamps and posts the decline
// message.
func (e *Engine) ResolveApplication(ctx context.Context, actorID, appID primitive.ObjectID, accept bool) error {
	if err := e.requireUnfrozen(ctx); err != nil {
		return err
	}

	app, err := e.applications.GetByID(ctx, appID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}

	group, err := e.groups.GetByID(ctx, app.GroupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if group.LeaderID != actorID {
		return ErrUnauthorized
	}
	if app.Status != models.RequestPending {
		return ErrNotFound
	}

	applicant, err := e.profiles.GetByID(ctx, app.ApplicantID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}

	if !accept {
		if err := e.applications.Resolve(ctx, appID, models.RequestRejected); err != nil {
			return err
		}
		_, err := e.messages.Create(ctx, models.Message{
			GroupID:     group.ID,
			SenderID:    actorID,
			Content:     fmt.Sprintf("Application from %s was declined.", applicant.FullName),
			MessageType: models.MessageSystem,
		})
		return err
	}

	// The capacity check and the member insert below are separate writes
	// with no guard between them. Two acceptances running concurrently can
	// both read a count under max_members before either inserts, taking the
	// group past capacity.
	count, err := e.members.CountByGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	if int(count) >= group.MaxMembers {
		return ErrCapacityExceeded
	}

	if err := e.members.Add(ctx, group.ID, app.ApplicantID); err != nil {
		return err
	}
	if err := e.profiles.SetGroup(ctx, app.ApplicantID, group.ID, models.RoleStudent); err != nil {
		return err
	}

	// Recompute from the post-insert count, starting from the stored label.
	// is_frozen is ignored here; a frozen group's label can flip.
	newStatus := DeriveStatus(group.MaxMembers, int(count)+1)
	if newStatus != group.Status {
		if err := e.groups.SetStatus(ctx, group.ID, newStatus); err != nil {
			return err
		}
	}

	if _, err := e.applications.RejectOtherPending(ctx, app.ApplicantID, appID); err != nil {
		return err
	}
	if err := e.applications.Resolve(ctx, appID, models.RequestAccepted); err != nil {
		return err
	}

	// Both resolution messages are posted as the resolving leader.
	_, err = e.messages.Create(ctx, models.Message{
		GroupID:     group.ID,
		SenderID:    actorID,
		Content:     fmt.Sprintf("%s has joined the group!", applicant.FullName),
		MessageType: models.MessageSystem,
	})
	if err != nil {
		return err
	}

	e.log.Info("application accepted",
		zap.String("group_id", group.ID.Hex()),
		zap.String("applicant_id", app.ApplicantID.Hex()))
	return nil
}

/*──────────────────────────── invitations ──────────────────────────────*/

// SendInvite invites a student into the inviter's current group.
func (e *Engine) SendInvite(ctx context.Context, inviterID, inviteeID primitive.ObjectID) (models.GroupInvitation, error) {
	if err := e.requireUnfrozen(ctx); err != nil {
		return models.GroupInvitation{}, err
	}

	inviter, err := e.profiles.GetByID(ctx, inviterID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.GroupInvitation{}, ErrNotFound
		}
		return models.GroupInvitation{}, err
	}
	if inviter.CurrentGroupID == nil {
		return models.GroupInvitation{}, ErrNoGroupToInviteInto
	}

	if _, err := e.profiles.GetByID(ctx, inviteeID); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.GroupInvitation{}, ErrNotFound
		}
		return models.GroupInvitation{}, err
	}

	return e.invitations.Create(ctx, models.GroupInvitation{
		GroupID:   *inviter.CurrentGroupID,
		InviterID: inviterID,
		InviteeID: inviteeID,
	})
}

// AcceptInvite joins the accepter to the inviting group. Writes, in order:
// member insert, profile pointer (role untouched), invite stamp. There is
// deliberately NO capacity check and NO status recompute on this path; an
// invitation can take a group past max_members without relabeling it.
func (e *Engine) AcceptInvite(ctx context.Context, accepterID, inviteID primitive.ObjectID) error {
	if err := e.requireUnfrozen(ctx); err != nil {
		return err
	}

	inv, err := e.invitations.GetByID(ctx, inviteID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if inv.InviteeID != accepterID {
		return ErrUnauthorized
	}
	if inv.Status != models.RequestPending {
		return ErrNotFound
	}

	accepter, err := e.profiles.GetByID(ctx, accepterID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if accepter.CurrentGroupID != nil {
		return fmt.Errorf("%w: you already belong to a group", ErrValidationFailed)
	}

	if err := e.members.Add(ctx, inv.GroupID, accepterID); err != nil {
		return err
	}
	if err := e.profiles.SetGroupPointer(ctx, accepterID, inv.GroupID); err != nil {
		return err
	}
	return e.invitations.Resolve(ctx, inviteID, models.RequestAccepted)
}

// DeclineInvite marks the invitation rejected. Allowed while the system is
// frozen.
func (e *Engine) DeclineInvite(ctx context.Context, accepterID, inviteID primitive.ObjectID) error {
	inv, err := e.invitations.GetByID(ctx, inviteID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if inv.InviteeID != accepterID {
		return ErrUnauthorized
	}
	if inv.Status != models.RequestPending {
		return ErrNotFound
	}
	return e.invitations.Resolve(ctx, inviteID, models.RequestRejected)
}

/*──────────────────────────── departures ───────────────────────────────*/

// RemoveMember evicts a non-leader member. Leader only; the leader can never
// be removed. Allowed while the system is frozen.
func (e *Engine) RemoveMember(ctx context.Context, actorID, groupID, targetID primitive.ObjectID) error {
	group, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if group.LeaderID != actorID {
		return ErrUnauthorized
	}
	if targetID == group.LeaderID {
		return ErrUnauthorized
	}
	return e.departMember(ctx, group, targetID)
}

// LeaveGroup is the self-initiated variant of RemoveMember. The leader
// cannot leave; they must delete the group instead.
func (e *Engine) LeaveGroup(ctx context.Context, memberID primitive.ObjectID) error {
	member, err := e.profiles.GetByID(ctx, memberID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if member.CurrentGroupID == nil {
		return ErrNotFound
	}

	group, err := e.groups.GetByID(ctx, *member.CurrentGroupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if group.LeaderID == memberID {
		return ErrUnauthorized
	}
	return e.departMember(ctx, group, memberID)
}

// departMember is the shared write chain for removals and leaves: delete
// membership, clear the profile cache, recompute status from the live count
// and write it unconditionally (a frozen label is overwritten too), post the
// departure message.
func (e *Engine) departMember(ctx context.Context, group models.Group, userID primitive.ObjectID) error {
	target, err := e.profiles.GetByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}

	deleted, err := e.members.Remove(ctx, group.ID, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	if err := e.profiles.ClearGroup(ctx, userID); err != nil {
		return err
	}

	count, err := e.members.CountByGroup(ctx, group.ID)
	if err != nil {
		return err
	}
	if err := e.groups.SetStatus(ctx, group.ID, DeriveStatus(group.MaxMembers, int(count))); err != nil {
		return err
	}

	_, err = e.messages.Create(ctx, models.Message{
		GroupID:     group.ID,
		SenderID:    userID,
		Content:     fmt.Sprintf("%s has left the group.", target.FullName),
		MessageType: models.MessageSystem,
	})
	return err
}

/*──────────────────────────── freeze and delete ────────────────────────*/

// SetGroupFreeze flips the group freeze flag. Freezing labels the group
// "frozen"; unfreezing resets the label to "open" regardless of the member
// count.
func (e *Engine) SetGroupFreeze(ctx context.Context, actorID, groupID primitive.ObjectID, frozen bool) error {
	group, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if group.LeaderID != actorID {
		return ErrUnauthorized
	}

	status := models.StatusOpen
	if frozen {
		status = models.StatusFrozen
	}
	return e.groups.SetFrozen(ctx, groupID, frozen, status)
}

// DeleteGroup tears a group down: memberships, member profile caches,
// pending applications and invitations, chat history, then the group
// document itself. Leader only.
func (e *Engine) DeleteGroup(ctx context.Context, actorID, groupID primitive.ObjectID) error {
	group, err := e.groups.GetByID(ctx, groupID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if group.LeaderID != actorID {
		return ErrUnauthorized
	}

	members, err := e.members.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if _, err := e.members.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}
	for _, m := range members {
		if err := e.profiles.ClearGroup(ctx, m.UserID); err != nil {
			return err
		}
	}

	if _, err := e.applications.DeletePendingByGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := e.invitations.DeletePendingByGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := e.messages.DeleteByGroup(ctx, groupID); err != nil {
		return err
	}

	if _, err := e.groups.Delete(ctx, groupID); err != nil {
		return err
	}

	e.log.Info("group deleted",
		zap.String("group_id", groupID.Hex()),
		zap.String("leader_id", actorID.Hex()),
		zap.Int("members_released", len(members)))
	return nil
}
