package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/howufeel/howufeel/internal/models"
	"github.com/howufeel/howufeel/internal/policy"
	"github.com/howufeel/howufeel/internal/utils"
)

// 邀请码生成最多重试次数；查重-重试不具备事务性，
// 并发创建下的冲突最终由 join_code 唯一索引兜底
const maxJoinCodeAttempts = 5

// GroupStore 群组服务依赖的群组仓储能力
type GroupStore interface {
	CreateWithAdmin(group *models.Group) error
	GetByID(id uint) (*models.Group, error)
	GetByJoinCode(code string) (*models.Group, error)
	JoinCodeExists(code string) (bool, error)
	Update(group *models.Group) error
	Delete(id uint) error
	GetUserGroups(userID uint, limit, offset int) ([]models.Group, int64, error)
}

// MemberStore 群组服务依赖的成员仓储能力
type MemberStore interface {
	Get(groupID, userID uint) (*models.GroupMember, error)
	AddWithCount(member *models.GroupMember) error
	RemoveWithCount(groupID, userID uint) error
	UpdateRole(groupID, userID uint, role models.Role) error
	TransferAdmin(groupID, oldAdminID, newAdminID uint) error
	List(groupID uint, limit, offset int) ([]models.GroupMember, int64, error)
	ListGroupIDs(userID uint) ([]uint, error)
}

// GroupService 群组服务
type GroupService struct {
	groupStore  GroupStore
	memberStore MemberStore
	events      EventSender
}

// NewGroupService 创建群组服务实例；events 为 nil 时不发成员事件
func NewGroupService(groupStore GroupStore, memberStore MemberStore, events EventSender) *GroupService {
	return &GroupService{
		groupStore:  groupStore,
		memberStore: memberStore,
		events:      events,
	}
}

// MemberEvent 成员变更事件，经 Kafka 送往实时推送
type MemberEvent struct {
	EventID string      `json:"event_id"`
	Type    string      `json:"type"`
	GroupID uint        `json:"group_id"`
	UserID  uint        `json:"user_id"`
	Role    models.Role `json:"role,omitempty"`
	ActorID uint        `json:"actor_id,omitempty"`
}

// publishMemberEvent 发布成员事件；失败只记录，不影响操作结果
func (s *GroupService) publishMemberEvent(eventType string, groupID, userID uint, role models.Role, actorID uint) {
	if s.events == nil {
		return
	}
	event := MemberEvent{
		EventID: uuid.NewString(),
		Type:    eventType,
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
		ActorID: actorID,
	}
	if err := s.events.SendMessage(fmt.Sprintf("group-%d", groupID), event); err != nil {
		log.Printf("publish member event failed: %v", err)
	}
}

// CreateGroupRequest 创建群组请求
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// UpdateGroupRequest 更新群组请求
type UpdateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GroupDTO 群组数据传输对象
type GroupDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   uint   `json:"creator_id"`
	JoinCode    string `json:"join_code"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}

// GroupPreviewDTO 加入前的群组预览，不暴露邀请码之外拿不到的信息
type GroupPreviewDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"member_count"`
}

// GroupMemberDTO 群组成员数据传输对象
type GroupMemberDTO struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	RoleLabel   string `json:"role_label"`
	JoinedAt    string `json:"joined_at"`
}

func toGroupDTO(group *models.Group) GroupDTO {
	return GroupDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatorID:   group.CreatorID,
		JoinCode:    group.JoinCode,
		MemberCount: group.MemberCount,
		CreatedAt:   group.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// membership 查成员记录并转成 policy 视图；不存在时返回 nil
func (s *GroupService) membership(groupID, userID uint) (*policy.Membership, error) {
	member, err := s.memberStore.Get(groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &policy.Membership{UserID: member.UserID, Role: member.Role}, nil
}

// CreateGroup 创建群组：生成唯一邀请码，群组与创建者 ADMIN 成员同一事务写入
func (s *GroupService) CreateGroup(creatorID uint, req *CreateGroupRequest) (*GroupDTO, error) {
	if !policy.ValidGroupName(req.Name) {
		return nil, errors.New("group name must be 3-50 characters")
	}

	var joinCode string
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		code, err := utils.GenerateJoinCode()
		if err != nil {
			return nil, err
		}
		exists, err := s.groupStore.JoinCodeExists(code)
		if err != nil {
			return nil, err
		}
		if !exists {
			joinCode = code
			break
		}
	}
	if joinCode == "" {
		return nil, ErrJoinCodeRetry
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   creatorID,
		JoinCode:    joinCode,
		MemberCount: 1,
	}

	if err := s.groupStore.CreateWithAdmin(group); err != nil {
		return nil, err
	}

	dto := toGroupDTO(group)
	return &dto, nil
}

// PreviewByJoinCode 通过邀请码预览群组（加入前）
func (s *GroupService) PreviewByJoinCode(code string) (*GroupPreviewDTO, error) {
	group, err := s.groupStore.GetByJoinCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &GroupPreviewDTO{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		MemberCount: group.MemberCount,
	}, nil
}

// JoinGroup 通过邀请码加入群组
func (s *GroupService) JoinGroup(userID uint, code string) (*GroupDTO, error) {
	group, err := s.groupStore.GetByJoinCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if group.CreatorID == userID {
		return nil, ErrSelfJoin
	}

	existing, err := s.membership(group.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Role == models.RoleBanned {
			return nil, ErrBanned
		}
		return nil, ErrAlreadyMember
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}
	if err := s.memberStore.AddWithCount(member); err != nil {
		// 并发加入撞了 (group_id, user_id) 唯一索引，等价于已是成员
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.publishMemberEvent("member.joined", group.ID, userID, models.RoleMember, userID)

	group.MemberCount++
	dto := toGroupDTO(group)
	return &dto, nil
}

// LeaveGroup 离开群组；自我移除总是允许
func (s *GroupService) LeaveGroup(userID uint, groupID uint) error {
	m, err := s.membership(groupID, userID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotMember
	}
	if err := s.memberStore.RemoveWithCount(groupID, userID); err != nil {
		return err
	}
	s.publishMemberEvent("member.left", groupID, userID, "", userID)
	return nil
}

// UpdateGroup 更新群组；仅创建者或 ADMIN
func (s *GroupService) UpdateGroup(callerID, groupID uint, req *UpdateGroupRequest) (*GroupDTO, error) {
	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	m, err := s.membership(groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateGroup(callerID, group.CreatorID, m) {
		return nil, ErrForbidden
	}

	if req.Name != "" {
		if !policy.ValidGroupName(req.Name) {
			return nil, errors.New("group name must be 3-50 characters")
		}
		group.Name = req.Name
	}
	if req.Description != "" {
		group.Description = req.Description
	}

	if err := s.groupStore.Update(group); err != nil {
		return nil, err
	}

	dto := toGroupDTO(group)
	return &dto, nil
}

// DeleteGroup 删除群组；仅创建者或 ADMIN
func (s *GroupService) DeleteGroup(callerID, groupID uint) error {
	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	m, err := s.membership(groupID, callerID)
	if err != nil {
		return err
	}
	if !policy.CanUpdateGroup(callerID, group.CreatorID, m) {
		return ErrForbidden
	}

	return s.groupStore.Delete(groupID)
}

// GetGroupDetail 获取群组详情；非成员与 BANNED 不可读
func (s *GroupService) GetGroupDetail(callerID, groupID uint) (*GroupDTO, error) {
	m, err := s.membership(groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadGroup(m) {
		return nil, ErrForbidden
	}

	group, err := s.groupStore.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dto := toGroupDTO(group)
	return &dto, nil
}

// GetUserGroups 获取用户所在的所有群组
func (s *GroupService) GetUserGroups(userID uint, page, pageSize int) ([]GroupDTO, int64, error) {
	offset := (page - 1) * pageSize
	groups, total, err := s.groupStore.GetUserGroups(userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	var groupDTOs []GroupDTO
	for _, group := range groups {
		groupDTOs = append(groupDTOs, toGroupDTO(&group))
	}
	return groupDTOs, total, nil
}

// GetUserGroupIDs 获取用户所在群组的 ID 列表（不含被封禁的群组）
func (s *GroupService) GetUserGroupIDs(userID uint) ([]uint, error) {
	return s.memberStore.ListGroupIDs(userID)
}

// GetGroupMembers 获取群组成员列表；读取权限同群组详情
func (s *GroupService) GetGroupMembers(callerID, groupID uint, page, pageSize int) ([]GroupMemberDTO, int64, error) {
	m, err := s.membership(groupID, callerID)
	if err != nil {
		return nil, 0, err
	}
	if !policy.CanReadGroup(m) {
		return nil, 0, ErrForbidden
	}

	offset := (page - 1) * pageSize
	members, total, err := s.memberStore.List(groupID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	var memberDTOs []GroupMemberDTO
	for _, member := range members {
		dto := GroupMemberDTO{
			UserID:    member.UserID,
			Role:      string(member.Role),
			RoleLabel: member.Role.Label(),
			JoinedAt:  member.JoinedAt.Format("2006-01-02 15:04:05"),
		}
		if member.User != nil {
			dto.Username = member.User.UserName
			dto.DisplayName = member.User.DisplayName
		}
		memberDTOs = append(memberDTOs, dto)
	}
	return memberDTOs, total, nil
}

// ChangeMemberRole 变更成员角色；ADMIN 角色不走这里，见 TransferAdmin
func (s *GroupService) ChangeMemberRole(actorID, groupID, targetID uint, newRole models.Role) error {
	actor, err := s.membership(groupID, actorID)
	if err != nil {
		return err
	}
	target, err := s.membership(groupID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotMember
	}

	if !policy.CanChangeRole(actor, target, newRole) {
		return ErrForbidden
	}

	if err := s.memberStore.UpdateRole(groupID, targetID, newRole); err != nil {
		return err
	}
	s.publishMemberEvent("member.role_changed", groupID, targetID, newRole, actorID)
	return nil
}

// TransferAdmin 移交 ADMIN：同一事务内原 ADMIN 降为 MODERATOR、目标升为 ADMIN，
// 维持"每群恰好一个 ADMIN"
func (s *GroupService) TransferAdmin(actorID, groupID, targetID uint) error {
	actor, err := s.membership(groupID, actorID)
	if err != nil {
		return err
	}
	if actor == nil || actor.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if actorID == targetID {
		return ErrInvalidInput
	}

	target, err := s.membership(groupID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotMember
	}
	if target.Role == models.RoleBanned {
		return ErrBanned
	}

	if err := s.memberStore.TransferAdmin(groupID, actorID, targetID); err != nil {
		return err
	}
	s.publishMemberEvent("member.role_changed", groupID, targetID, models.RoleAdmin, actorID)
	s.publishMemberEvent("member.role_changed", groupID, actorID, models.RoleModerator, actorID)
	return nil
}

// RemoveMember 移除成员
func (s *GroupService) RemoveMember(actorID, groupID, targetID uint) error {
	actor, err := s.membership(groupID, actorID)
	if err != nil {
		return err
	}
	target, err := s.membership(groupID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotMember
	}

	if !policy.CanRemoveMember(actor, target) {
		return ErrForbidden
	}

	if err := s.memberStore.RemoveWithCount(groupID, targetID); err != nil {
		return err
	}
	s.publishMemberEvent("member.removed", groupID, targetID, "", actorID)
	return nil
}

// BanMember 封禁成员：保留成员记录但失去读取权限
func (s *GroupService) BanMember(actorID, groupID, targetID uint) error {
	return s.ChangeMemberRole(actorID, groupID, targetID, models.RoleBanned)
}
