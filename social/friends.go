package social

import (
	"context"
	"errors"

	"github.com/mizusawa-dev/clique/apperr"
	"github.com/mizusawa-dev/clique/fanout"
	"github.com/mizusawa-dev/clique/model"
	"gorm.io/gorm"
)

// displayName is the handle shown in notification payloads.
func displayName(u *model.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// SendFriendRequest creates the two mirrored PENDING friend edges and the
// FRIENDREQUEST notification addressed to the target, atomically.
func (s *Service) SendFriendRequest(ctx context.Context, fromID, toID string) (*model.Notification, error) {
	if fromID == toID {
		return nil, apperr.Conflict("friend", "friendId")
	}

	var notif model.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from, to model.User
		if err := tx.First(&from, "id = ?", fromID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user")
			}
			return err
		}
		if err := tx.First(&to, "id = ?", toID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user")
			}
			return err
		}

		// Any existing edge blocks a new request: PENDING means one is already
		// in flight (possibly an orphan left by an earlier reject), ACTIVE
		// means they are already friends.
		var existing int64
		if err := tx.Model(&model.Friend{}).
			Where("(friend_of_id = ? AND friend_id = ?) OR (friend_of_id = ? AND friend_id = ?)",
				fromID, toID, toID, fromID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperr.Conflict("friend", "friendId")
		}

		if err := tx.Create(&model.Friend{
			FriendOfID: fromID, FriendID: toID, Status: model.FriendPending,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Friend{
			FriendOfID: toID, FriendID: fromID, Status: model.FriendPending,
		}).Error; err != nil {
			return err
		}

		notif = model.Notification{
			Type:           model.TypeFriendRequest,
			Status:         model.StatusPending,
			TriggeredByID:  fromID,
			TriggeredForID: toID,
			Payload:        displayName(&from),
		}
		return tx.Create(&notif).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, toID)
	s.fan.Publish(ctx, fanout.UserRoom(toID), "notification:new", notif)
	return &notif, nil
}

// FriendResolution is the outcome of resolving a friend request.
type FriendResolution struct {
	Notification model.Notification
	Friends      []model.Friend
	// Followup is the COMPLETED REQUESTUPDATE notification created for the
	// original requester on accept; nil on reject.
	Followup *model.Notification
}

// ResolveFriendRequest accepts or rejects a PENDING friend request. The
// caller must be the notification's recipient. On accept both directed edges
// flip to ACTIVE and a follow-up notification goes back to the requester; on
// reject only the notification transitions, the PENDING edges stay as they
// are.
func (s *Service) ResolveFriendRequest(ctx context.Context, callerID, notificationID string, action Action) (*FriendResolution, error) {
	var res FriendResolution
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var notif model.Notification
		if err := tx.First(&notif, "id = ?", notificationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("notification")
			}
			return err
		}
		if notif.Type != model.TypeFriendRequest {
			return apperr.Conflict("notification", "type")
		}
		if notif.TriggeredForID != callerID {
			return apperr.Forbidden("notification")
		}
		if notif.Status.Terminal() {
			return apperr.Conflict("notification", "status")
		}

		var newStatus model.NotificationStatus
		switch action {
		case ActionAccept:
			newStatus = model.StatusAccepted
			flip := tx.Model(&model.Friend{}).
				Where("((friend_of_id = ? AND friend_id = ?) OR (friend_of_id = ? AND friend_id = ?)) AND status = ?",
					notif.TriggeredByID, callerID, callerID, notif.TriggeredByID, model.FriendPending).
				Update("status", model.FriendActive)
			if flip.Error != nil {
				return flip.Error
			}
			// The mirrored pair is written atomically, so anything but two
			// rows means the edges vanished underneath the notification.
			if flip.RowsAffected != 2 {
				return apperr.Orphaned("friend")
			}
		case ActionReject:
			newStatus = model.StatusRejected
		default:
			return apperr.Conflict("notification", "action")
		}

		// Compare-and-swap on status: under two concurrent resolves exactly
		// one sees RowsAffected == 1, the other gets a conflict and the whole
		// transaction rolls back.
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

		if action == ActionAccept {
			var caller model.User
			if err := tx.First(&caller, "id = ?", callerID).Error; err != nil {
				return err
			}
			followup := model.Notification{
				Type:           model.TypeRequestUpdate,
				Status:         model.StatusCompleted,
				TriggeredByID:  callerID,
				TriggeredForID: notif.TriggeredByID,
				Payload:        displayName(&caller),
			}
			if err := tx.Create(&followup).Error; err != nil {
				return err
			}
			res.Followup = &followup

			if err := tx.Where("(friend_of_id = ? AND friend_id = ?) OR (friend_of_id = ? AND friend_id = ?)",
				notif.TriggeredByID, callerID, callerID, notif.TriggeredByID).
				Find(&res.Friends).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateUnread(ctx, callerID)
	if res.Followup != nil {
		s.invalidateUnread(ctx, res.Notification.TriggeredByID)
	}
	s.fan.Publish(ctx, fanout.UserRoom(res.Notification.TriggeredByID), "request:update", res.Notification)
	return &res, nil
}
