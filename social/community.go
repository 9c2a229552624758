package social

import (
	"context"
	"errors"

	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/model"
	"gorm.io/gorm"
)

// CreateCommunity creates a community with the caller as its sole ACTIVE
// OWNER participant and an empty inbox. The name is unique case-insensitively.
func (s *Service) CreateCommunity(ctx context.Context, ownerID, name, bio, avatarURL, bannerURL string) (*model.Community, error) {
	var community model.Community
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner model.User
		if err := tx.First(&owner, "id = ?", ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user")
			}
			return err
		}

		var dup int64
		if err := tx.Model(&model.Community{}).
			Where("LOWER(name) = LOWER(?)", name).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperr.Conflict("community", "name")
		}

		community = model.Community{
			Name:              name,
			Bio:               bio,
			AvatarURL:         avatarURL,
			BannerURL:         bannerURL,
			ParticipantsCount: 1,
		}
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Participant{
			UserID:      ownerID,
			CommunityID: community.ID,
			Status:      model.ParticipantActive,
			Role:        model.RoleOwner,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&model.Inbox{CommunityID: community.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

// RequestJoin creates a PENDING participant row for the caller and notifies
// the community's owner with a COMMUNITYREQUEST.
func (s *Service) RequestJoin(ctx context.Context, userID, communityID string) (*model.Notification, error) {
	var notif model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user")
			}
			return err
		}
		var community model.Community
		if err := tx.First(&community, "id = ?", communityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("community")
			}
			return err
		}

		// A row in any status blocks a new request: PENDING is already in
		// flight, ACTIVE is already a member.
		var existing int64
		if err := tx.Model(&model.Participant{}).
			Where("user_id = ? AND community_id = ?", userID, communityID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("participant", "communityId")
		}

		var owner model.Participant
		if err := tx.Where("community_id = ? AND role = ?", communityID, model.RoleOwner).
			First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Orphaned("participant")
			}
			return err
		}

		participant := model.Participant{
			UserID:      userID,
			CommunityID: communityID,
			Status:      model.ParticipantPending,
			Role:        model.RoleMember,
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		notif = model.Notification{
			Type:           model.TypeCommunityRequest,
			Status:         model.StatusPending,
			TriggeredByID:  userID,
			TriggeredForID: owner.UserID,
			CommunityID:    &communityID,
			Payload:        displayName(&user),
		}
		return tx.Create(&notif).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, notif.TriggeredForID)
	s.fan.Publish(ctx, fanout.UserRoom(notif.TriggeredForID), "notification:new", notif)
	return &notif, nil
}

// CommunityResolution is the outcome of resolving a community-join request.
type CommunityResolution struct {
	Notification model.Notification
	// Participant is the activated membership on accept; nil on reject, where
	// the pending row is removed instead.
	Participant *model.Participant
}

// ResolveCommunityRequest accepts or rejects a pending join request. Only the
// community's owner may resolve it. Accept flips the participant ACTIVE and
// increments the community's member counter in the same transaction; reject
// deletes the pending participant row.
func (s *Service) ResolveCommunityRequest(ctx context.Context, callerID, notificationID, participantID string, action Action) (*CommunityResolution, error) {
	var res CommunityResolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var notif model.Notification
		if err := tx.First(&notif, "id = ?", notificationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("notification")
			}
			return err
		}
		if notif.Type != model.TypeCommunityRequest {
			return apperr.Conflict("notification", "type")
		}
		if notif.CommunityID == nil {
			return apperr.Orphaned("community")
		}

		// Authorization follows the OWNER participant row, not the
		// notification's addressee, so an ownership handover takes effect on
		// requests already in flight.
		var owner model.Participant
		if err := tx.Where("community_id = ? AND role = ?", *notif.CommunityID, model.RoleOwner).
			First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Orphaned("participant")
			}
			return err
		}
		if owner.UserID != callerID {
			return apperr.Forbidden("notification")
		}
		if notif.Status.Terminal() {
			return apperr.Conflict("notification", "status")
		}

		var participant model.Participant
		if err := tx.First(&participant, "id = ?", participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Orphaned("participant")
			}
			return err
		}
		if participant.CommunityID != *notif.CommunityID || participant.UserID != notif.TriggeredByID {
			return apperr.Orphaned("participant")
		}

		var newStatus model.NotificationStatus
		switch action {
		case ActionAccept:
			newStatus = model.StatusAccepted
			flip := tx.Model(&model.Participant{}).
				Where("id = ? AND status = ?", participant.ID, model.ParticipantPending).
				Update("status", model.ParticipantActive)
			if flip.Error != nil {
				return flip.Error
			}
			if flip.RowsAffected == 0 {
				return apperr.Conflict("participant", "status")
			}
			if err := tx.Model(&model.Community{}).
				Where("id = ?", *notif.CommunityID).
				Update("participants_count", gorm.Expr("participants_count + 1")).Error; err != nil {
				return err
			}
			participant.Status = model.ParticipantActive
			res.Participant = &participant
		case ActionReject:
			newStatus = model.StatusRejected
			if err := tx.Delete(&model.Participant{}, "id = ?", participant.ID).Error; err != nil {
				return err
			}
		default:
			return apperr.Conflict("notification", "action")
		}

		cas := tx.Model(&model.Notification{}).
			Where("id = ? AND status = ?", notif.ID, model.StatusPending).
			Updates(map[string]interface{}{"status": newStatus, "is_read": true})
		if cas.Error != nil {
			return cas.Error
		}
		if cas.RowsAffected == 0 {
			return apperr.Conflict("notification", "status")
		}
		notif.Status = newStatus
		notif.IsRead = true
		res.Notification = notif
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, callerID)
	s.fan.Publish(ctx, fanout.UserRoom(res.Notification.TriggeredByID), "request:update", res.Notification)
	if res.Participant != nil {
		s.fan.Publish(ctx, fanout.CommunityRoom(res.Participant.CommunityID), "member:joined", res.Participant)
	}
	return &res, nil
}

// DeleteCommunity removes a community and everything hanging off it: its
// messages, inbox, participants, and community-scoped notifications. Only the
// owner may delete.
func (s *Service) DeleteCommunity(ctx context.Context, callerID, communityID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var community model.Community
		if err := tx.First(&community, "id = ?", communityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("community")
			}
			return err
		}

		var caller model.Participant
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, callerID).
			First(&caller).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Forbidden("community")
			}
			return err
		}
		if caller.Role != model.RoleOwner {
			return apperr.Forbidden("community")
		}

		inboxIDs := tx.Model(&model.Inbox{}).Select("id").Where("community_id = ?", communityID)
		if err := tx.Where("inbox_id IN (?)", inboxIDs).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", communityID).Delete(&model.Inbox{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", communityID).Delete(&model.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", communityID).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Community{}, "id = ?", communityID).Error
	})
}
