package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howufeel/howufeel/internal/models"
)

func newGroupService() (*GroupService, *fakeGroupStore, *fakeMemberStore) {
	members := newFakeMemberStore()
	groups := newFakeGroupStore(members)
	return NewGroupService(groups, members, nil), groups, members
}

func TestCreateGroup(t *testing.T) {
	svc, _, members := newGroupService()

	dto, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew", Description: "daily check-in"})
	require.NoError(t, err)

	assert.Len(t, dto.JoinCode, 6)
	assert.Equal(t, uint(1), dto.CreatorID)
	assert.Equal(t, 1, dto.MemberCount)

	// creator becomes ADMIN in the same write
	m, err := members.Get(dto.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, m.Role)
}

func TestCreateGroup_InvalidName(t *testing.T) {
	svc, _, _ := newGroupService()

	_, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "ab"})
	require.Error(t, err)
}

func TestJoinGroup(t *testing.T) {
	svc, _, _ := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)

	t.Run("member joins with code", func(t *testing.T) {
		dto, err := svc.JoinGroup(2, group.JoinCode)
		require.NoError(t, err)
		assert.Equal(t, group.ID, dto.ID)
		assert.Equal(t, 2, dto.MemberCount)
	})

	t.Run("creator cannot join own group", func(t *testing.T) {
		_, err := svc.JoinGroup(1, group.JoinCode)
		assert.ErrorIs(t, err, ErrSelfJoin)
	})

	t.Run("double join rejected", func(t *testing.T) {
		_, err := svc.JoinGroup(2, group.JoinCode)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("banned member cannot rejoin", func(t *testing.T) {
		require.NoError(t, svc.BanMember(1, group.ID, 2))
		_, err := svc.JoinGroup(2, group.JoinCode)
		assert.ErrorIs(t, err, ErrBanned)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.JoinGroup(3, "ZZZZZZ")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGroupPreview(t *testing.T) {
	svc, _, _ := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew", Description: "hello"})
	require.NoError(t, err)

	preview, err := svc.PreviewByJoinCode(group.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, group.ID, preview.ID)
	assert.Equal(t, "mood crew", preview.Name)

	_, err = svc.PreviewByJoinCode("NOCODE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupReadAccess(t *testing.T) {
	svc, _, _ := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(2, group.JoinCode)
	require.NoError(t, err)

	t.Run("member reads detail", func(t *testing.T) {
		dto, err := svc.GetGroupDetail(2, group.ID)
		require.NoError(t, err)
		assert.Equal(t, group.ID, dto.ID)
	})

	t.Run("non-member denied", func(t *testing.T) {
		_, err := svc.GetGroupDetail(99, group.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("banned member denied", func(t *testing.T) {
		require.NoError(t, svc.BanMember(1, group.ID, 2))
		_, err := svc.GetGroupDetail(2, group.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestUpdateGroupPermissions(t *testing.T) {
	svc, _, _ := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(2, group.JoinCode)
	require.NoError(t, err)

	t.Run("plain member cannot update", func(t *testing.T) {
		_, err := svc.UpdateGroup(2, group.ID, &UpdateGroupRequest{Name: "renamed"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("creator updates", func(t *testing.T) {
		dto, err := svc.UpdateGroup(1, group.ID, &UpdateGroupRequest{Name: "renamed"})
		require.NoError(t, err)
		assert.Equal(t, "renamed", dto.Name)
	})

	t.Run("plain member cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteGroup(2, group.ID), ErrForbidden)
	})

	t.Run("creator deletes", func(t *testing.T) {
		require.NoError(t, svc.DeleteGroup(1, group.ID))
	})
}

func TestChangeMemberRole(t *testing.T) {
	svc, _, members := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(2, group.JoinCode)
	require.NoError(t, err)
	_, err = svc.JoinGroup(3, group.JoinCode)
	require.NoError(t, err)

	t.Run("admin promotes member to moderator", func(t *testing.T) {
		require.NoError(t, svc.ChangeMemberRole(1, group.ID, 2, models.RoleModerator))
		m, err := members.Get(group.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, m.Role)
	})

	t.Run("nobody is granted ADMIN through role change", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangeMemberRole(1, group.ID, 3, models.RoleAdmin), ErrForbidden)
	})

	t.Run("admin role never changed by others", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangeMemberRole(2, group.ID, 1, models.RoleMember), ErrForbidden)
	})

	t.Run("moderator can ban a member", func(t *testing.T) {
		require.NoError(t, svc.ChangeMemberRole(2, group.ID, 3, models.RoleBanned))
	})

	t.Run("restoring a banned member takes the admin", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangeMemberRole(2, group.ID, 3, models.RoleMember), ErrForbidden)
		require.NoError(t, svc.ChangeMemberRole(1, group.ID, 3, models.RoleMember))
	})

	t.Run("moderator cannot promote", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangeMemberRole(2, group.ID, 3, models.RoleModerator), ErrForbidden)
	})

	t.Run("unknown target", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangeMemberRole(1, group.ID, 99, models.RoleModerator), ErrNotMember)
	})
}

func TestTransferAdmin(t *testing.T) {
	svc, _, members := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(2, group.JoinCode)
	require.NoError(t, err)

	t.Run("non-admin cannot transfer", func(t *testing.T) {
		assert.ErrorIs(t, svc.TransferAdmin(2, group.ID, 1), ErrForbidden)
	})

	t.Run("cannot transfer to self", func(t *testing.T) {
		assert.ErrorIs(t, svc.TransferAdmin(1, group.ID, 1), ErrInvalidInput)
	})

	t.Run("transfer demotes old admin", func(t *testing.T) {
		require.NoError(t, svc.TransferAdmin(1, group.ID, 2))

		oldAdmin, err := members.Get(group.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, models.RoleModerator, oldAdmin.Role)

		newAdmin, err := members.Get(group.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, newAdmin.Role)
	})
}

func TestRemoveAndLeave(t *testing.T) {
	svc, _, _ := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(2, group.JoinCode)
	require.NoError(t, err)
	_, err = svc.JoinGroup(3, group.JoinCode)
	require.NoError(t, err)

	t.Run("member cannot remove another member", func(t *testing.T) {
		assert.ErrorIs(t, svc.RemoveMember(2, group.ID, 3), ErrForbidden)
	})

	t.Run("self removal always allowed", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(3, group.ID, 3))
	})

	t.Run("admin removes member", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(1, group.ID, 2))
		_, err := svc.GetGroupDetail(2, group.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("leave requires membership", func(t *testing.T) {
		assert.ErrorIs(t, svc.LeaveGroup(2, group.ID), ErrNotMember)
	})
}

// 退出或被移除后必须能重新加入，成员记录不能在唯一索引里留下死行。
func TestRejoinAfterExit(t *testing.T) {
	svc, _, members := newGroupService()

	group, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "mood crew"})
	require.NoError(t, err)

	t.Run("rejoin after leave", func(t *testing.T) {
		_, err := svc.JoinGroup(2, group.JoinCode)
		require.NoError(t, err)
		require.NoError(t, svc.LeaveGroup(2, group.ID))

		dto, err := svc.JoinGroup(2, group.JoinCode)
		require.NoError(t, err)
		assert.Equal(t, 2, dto.MemberCount)

		m, err := members.Get(group.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, models.RoleMember, m.Role)
	})

	t.Run("rejoin after removal by admin", func(t *testing.T) {
		require.NoError(t, svc.RemoveMember(1, group.ID, 2))
		_, err := svc.JoinGroup(2, group.JoinCode)
		require.NoError(t, err)
	})

	t.Run("index collision maps to already-member", func(t *testing.T) {
		// 成员检查和 INSERT 之间另一个请求抢先加入
		racer := &racingMemberStore{fakeMemberStore: members, winner: 7}
		raceSvc := NewGroupService(svc.groupStore, racer, nil)
		_, err := raceSvc.JoinGroup(7, group.JoinCode)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})
}

// racingMemberStore 在首次 AddWithCount 前抢先插入同一条成员记录，
// 模拟并发加入撞唯一索引的场景
type racingMemberStore struct {
	*fakeMemberStore
	winner uint
	raced  bool
}

func (s *racingMemberStore) AddWithCount(member *models.GroupMember) error {
	if !s.raced && member.UserID == s.winner {
		s.raced = true
		rival := *member
		if err := s.fakeMemberStore.AddWithCount(&rival); err != nil {
			return err
		}
	}
	return s.fakeMemberStore.AddWithCount(member)
}

func TestGetUserGroups(t *testing.T) {
	svc, _, _ := newGroupService()

	g1, err := svc.CreateGroup(1, &CreateGroupRequest{Name: "crew one"})
	require.NoError(t, err)
	g2, err := svc.CreateGroup(2, &CreateGroupRequest{Name: "crew two"})
	require.NoError(t, err)
	_, err = svc.JoinGroup(1, g2.JoinCode)
	require.NoError(t, err)

	groups, total, err := svc.GetUserGroups(1, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, groups, 2)

	ids, err := svc.GetUserGroupIDs(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{g1.ID, g2.ID}, ids)
}
